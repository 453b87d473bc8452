package farm

import (
	"sort"

	"github.com/iliyamo/smart-farming/internal/model"
)

// Breakdown aggregates the metrics of a group of records.
type Breakdown struct {
	Key     string `json:"key"`
	Records int    `json:"records"`
	model.Metrics
}

// Summary is the dashboard view over all of a user's records.
type Summary struct {
	Records      int            `json:"records"`
	TotalYieldKg float64        `json:"total_yield_kg"`
	Expenses     model.Expenses `json:"expenses"`
	model.Metrics
	BySeason []Breakdown `json:"by_season"`
	ByCrop   []Breakdown `json:"by_crop"`
}

// Summarize aggregates records using Compute on each record's raw fields,
// ignoring whatever derived figures the records carry.  Totals are plain
// sums of the per-record figures; margins are recomputed from the summed
// net profit and revenue.  Seasons are listed in calendar order, crops
// alphabetically.
func Summarize(records []model.FarmRecord) Summary {
	s := Summary{BySeason: []Breakdown{}, ByCrop: []Breakdown{}}
	seasons := map[string]*Breakdown{}
	crops := map[string]*Breakdown{}

	for i := range records {
		r := &records[i]
		m := Compute(r.Yield, r.PricePerUnit, r.Expenses)

		s.Records++
		s.TotalYieldKg += NormalizeYieldKg(r.Yield)
		addExpenses(&s.Expenses, r.Expenses)
		addMetrics(&s.Metrics, m)

		group(seasons, string(r.Season), m)
		group(crops, r.CropName, m)
	}
	s.ProfitMargin = Margin(s.NetProfit, s.Revenue)

	for _, season := range model.Seasons {
		if b, ok := seasons[string(season)]; ok {
			s.BySeason = append(s.BySeason, finish(b))
		}
	}
	keys := make([]string, 0, len(crops))
	for k := range crops {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.ByCrop = append(s.ByCrop, finish(crops[k]))
	}
	return s
}

func group(m map[string]*Breakdown, key string, metrics model.Metrics) {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{Key: key}
		m[key] = b
	}
	b.Records++
	addMetrics(&b.Metrics, metrics)
}

func finish(b *Breakdown) Breakdown {
	b.ProfitMargin = Margin(b.NetProfit, b.Revenue)
	return *b
}

func addMetrics(dst *model.Metrics, m model.Metrics) {
	dst.Revenue += m.Revenue
	dst.TotalExpenses += m.TotalExpenses
	dst.NetProfit += m.NetProfit
}

func addExpenses(dst *model.Expenses, e model.Expenses) {
	dst.Seeds += e.Seeds
	dst.Fertilizers += e.Fertilizers
	dst.Pesticides += e.Pesticides
	dst.Irrigation += e.Irrigation
	dst.Labor += e.Labor
	dst.Others += e.Others
}
