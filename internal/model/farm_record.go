package model

import "time"

// Season is the cropping season a farm record belongs to.
type Season string

const (
	SeasonKharif  Season = "Kharif"
	SeasonRabi    Season = "Rabi"
	SeasonSummer  Season = "Summer"
	SeasonMonsoon Season = "Monsoon"
	SeasonWinter  Season = "Winter"
)

// Seasons lists every accepted season in display order.
var Seasons = []Season{SeasonKharif, SeasonRabi, SeasonSummer, SeasonMonsoon, SeasonWinter}

// Valid reports whether s is one of the known seasons.
func (s Season) Valid() bool {
	for _, v := range Seasons {
		if s == v {
			return true
		}
	}
	return false
}

// Area and yield units.  Values are stored exactly as entered; only the
// yield is normalised (to kilograms) and only inside the metrics code.
const (
	AreaUnitAcre    = "acre"
	AreaUnitHectare = "hectare"

	YieldUnitKg     = "kg"
	YieldUnitTonnes = "tonnes"
)

// Area is the cultivated land for a record.
type Area struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Yield is the harvested quantity for a record.
type Yield struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Expenses holds the six cost buckets a farmer can log per record.
type Expenses struct {
	Seeds       float64 `json:"seeds"`
	Fertilizers float64 `json:"fertilizers"`
	Pesticides  float64 `json:"pesticides"`
	Irrigation  float64 `json:"irrigation"`
	Labor       float64 `json:"labor"`
	Others      float64 `json:"others"`
}

// Metrics are the financial figures derived from a record's raw inputs.
// They are never accepted from clients.
type Metrics struct {
	Revenue       float64 `json:"revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
}

// FarmRecord is one crop/season entry logged by a farmer.  It maps to a
// row in the `farm_records` table.
//
// Fields:
//
//	ID           – farm_records.id
//	UserID       – owner (users.id), fixed at creation
//	CropName     – crop grown
//	Season       – one of Seasons
//	Date         – calendar date of the entry (time of day is zero, UTC)
//	Area, Yield  – quantities with their units
//	PricePerUnit – selling price per kilogram
//	Expenses     – six cost buckets
//	Metrics      – derived figures, recomputed on every write and read
type FarmRecord struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	CropName     string    `json:"crop_name"`
	Season       Season    `json:"season"`
	Date         time.Time `json:"date"`
	Area         Area      `json:"area"`
	Yield        Yield     `json:"yield"`
	PricePerUnit float64   `json:"price_per_unit"`
	Expenses     Expenses  `json:"expenses"`
	Notes        string    `json:"notes,omitempty"`
	Metrics
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
