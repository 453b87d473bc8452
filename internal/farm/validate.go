package farm

import (
	"math"
	"strings"
	"time"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/validation"
)

// dateLayouts are tried in order when parsing a record date.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// AreaInput is the optional area block of a submission.
type AreaInput struct {
	Value *float64 `json:"value"`
	Unit  *string  `json:"unit"`
}

// YieldInput is the yield block of a submission.
type YieldInput struct {
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}

// ExpensesInput mirrors model.Expenses with every bucket optional.
type ExpensesInput struct {
	Seeds       *float64 `json:"seeds"`
	Fertilizers *float64 `json:"fertilizers"`
	Pesticides  *float64 `json:"pesticides"`
	Irrigation  *float64 `json:"irrigation"`
	Labor       *float64 `json:"labor"`
	Others      *float64 `json:"others"`
}

// Input is a farm-record submission as sent by a client.  A nil field was
// not sent.  Derived metrics have no input field.
type Input struct {
	CropName     *string        `json:"crop_name"`
	Season       *string        `json:"season"`
	Date         *string        `json:"date"`
	Area         *AreaInput     `json:"area"`
	Yield        *YieldInput    `json:"yield"`
	PricePerUnit *float64       `json:"price_per_unit"`
	Expenses     *ExpensesInput `json:"expenses"`
	Notes        *string        `json:"notes"`
}

// NewRecord builds a record owned by userID from a create submission.
// Price and yield amount must be present; everything numeric that is
// absent defaults to 0 and units default to acre and kg.  On success the
// record's metrics are already computed.
func NewRecord(userID uint64, in Input) (*model.FarmRecord, error) {
	r := &model.FarmRecord{
		UserID: userID,
		Area:   model.Area{Unit: model.AreaUnitAcre},
		Yield:  model.Yield{Unit: model.YieldUnitKg},
	}
	ve := validation.New()
	if in.PricePerUnit == nil {
		ve.Add("price_per_unit", "is required")
	}
	if in.Yield == nil || in.Yield.Amount == nil {
		ve.Add("yield.amount", "is required")
	}
	if in.Date == nil {
		ve.Add("date", "is required")
	}
	in.applyTo(r, ve)
	check(r, ve)
	if err := ve.Err(); err != nil {
		return nil, err
	}
	Recompute(r)
	return r, nil
}

// Merge applies an update submission on top of a copy of existing and
// validates the merged result.  existing is left untouched.
func Merge(existing model.FarmRecord, in Input) (*model.FarmRecord, error) {
	r := existing
	ve := validation.New()
	in.applyTo(&r, ve)
	check(&r, ve)
	if err := ve.Err(); err != nil {
		return nil, err
	}
	Recompute(&r)
	return &r, nil
}

// applyTo copies the fields present in in onto r.  Unparsable dates are
// reported on ve and leave r.Date unchanged.
func (in Input) applyTo(r *model.FarmRecord, ve *validation.Error) {
	if in.CropName != nil {
		r.CropName = strings.TrimSpace(*in.CropName)
	}
	if in.Season != nil {
		r.Season = normalizeSeason(*in.Season)
	}
	if in.Date != nil {
		d, ok := ParseDate(*in.Date)
		if !ok {
			ve.Add("date", "must be a date (YYYY-MM-DD)")
		} else {
			r.Date = d
		}
	}
	if a := in.Area; a != nil {
		if a.Value != nil {
			r.Area.Value = *a.Value
		}
		if a.Unit != nil {
			r.Area.Unit = orDefault(*a.Unit, model.AreaUnitAcre)
		}
	}
	if y := in.Yield; y != nil {
		if y.Amount != nil {
			r.Yield.Amount = *y.Amount
		}
		if y.Unit != nil {
			r.Yield.Unit = orDefault(*y.Unit, model.YieldUnitKg)
		}
	}
	if in.PricePerUnit != nil {
		r.PricePerUnit = *in.PricePerUnit
	}
	if e := in.Expenses; e != nil {
		setIf(&r.Expenses.Seeds, e.Seeds)
		setIf(&r.Expenses.Fertilizers, e.Fertilizers)
		setIf(&r.Expenses.Pesticides, e.Pesticides)
		setIf(&r.Expenses.Irrigation, e.Irrigation)
		setIf(&r.Expenses.Labor, e.Labor)
		setIf(&r.Expenses.Others, e.Others)
	}
	if in.Notes != nil {
		r.Notes = strings.TrimSpace(*in.Notes)
	}
}

func check(r *model.FarmRecord, ve *validation.Error) {
	ve.Required("crop_name", r.CropName)
	if !r.Season.Valid() {
		ve.Add("season", "must be one of Kharif, Rabi, Summer, Monsoon, Winter")
	}
	if r.Date.IsZero() {
		ve.Add("date", "is required")
	}
	switch r.Area.Unit {
	case model.AreaUnitAcre, model.AreaUnitHectare:
	default:
		ve.Add("area.unit", "must be acre or hectare")
	}
	switch r.Yield.Unit {
	case model.YieldUnitKg, model.YieldUnitTonnes:
	default:
		ve.Add("yield.unit", "must be kg or tonnes")
	}
	ve.NonNegative("price_per_unit", r.PricePerUnit)
	ve.NonNegative("yield.amount", r.Yield.Amount)
	ve.NonNegative("area.value", r.Area.Value)
	ve.NonNegative("expenses.seeds", r.Expenses.Seeds)
	ve.NonNegative("expenses.fertilizers", r.Expenses.Fertilizers)
	ve.NonNegative("expenses.pesticides", r.Expenses.Pesticides)
	ve.NonNegative("expenses.irrigation", r.Expenses.Irrigation)
	ve.NonNegative("expenses.labor", r.Expenses.Labor)
	ve.NonNegative("expenses.others", r.Expenses.Others)
	if len(ve.Fields) == 0 {
		checkMagnitude(r, ve)
	}
}

// maxFigure bounds revenue and total expenses of one record so that
// derived metrics and per-user sums stay finite.
const maxFigure = 1e15

func checkMagnitude(r *model.FarmRecord, ve *validation.Error) {
	m := Compute(r.Yield, r.PricePerUnit, r.Expenses)
	if math.IsInf(m.Revenue, 0) || m.Revenue > maxFigure {
		ve.Add("yield.amount", "values too large")
		ve.Add("price_per_unit", "values too large")
	}
	if math.IsInf(m.TotalExpenses, 0) || m.TotalExpenses > maxFigure {
		ve.Add("expenses", "total is too large")
	}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// normalizeSeason maps any casing of a known season to its canonical form.
// Unknown values are returned trimmed so validation can reject them.
func normalizeSeason(s string) model.Season {
	s = strings.TrimSpace(s)
	for _, v := range model.Seasons {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return model.Season(s)
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func orDefault(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}
