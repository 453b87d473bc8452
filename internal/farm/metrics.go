// Package farm holds the farm-record domain logic that does not touch the
// network or the database: derived financial metrics, per-user summaries
// and validation of client submissions.
package farm

import (
	"math"

	"github.com/iliyamo/smart-farming/internal/model"
)

const kgPerTonne = 1000

// NormalizeYieldKg returns the yield expressed in kilograms.  Any unit
// other than tonnes is taken to be kilograms already.
func NormalizeYieldKg(y model.Yield) float64 {
	if y.Unit == model.YieldUnitTonnes {
		return y.Amount * kgPerTonne
	}
	return y.Amount
}

// TotalExpenses sums the six expense buckets.
func TotalExpenses(e model.Expenses) float64 {
	return e.Seeds + e.Fertilizers + e.Pesticides + e.Irrigation + e.Labor + e.Others
}

// Margin returns net as a percentage of revenue, or 0 when revenue is not
// positive or the ratio is not a finite number.
func Margin(net, revenue float64) float64 {
	if revenue <= 0 {
		return 0
	}
	m := net / revenue * 100
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}

// Compute derives the financial metrics from validated raw inputs.  It is
// pure: the same inputs always give the same output and nothing is rounded.
func Compute(y model.Yield, pricePerUnit float64, e model.Expenses) model.Metrics {
	revenue := NormalizeYieldKg(y) * pricePerUnit
	total := TotalExpenses(e)
	net := revenue - total
	return model.Metrics{
		Revenue:       revenue,
		TotalExpenses: total,
		NetProfit:     net,
		ProfitMargin:  Margin(net, revenue),
	}
}

// Recompute overwrites r.Metrics with figures computed from r's raw fields.
func Recompute(r *model.FarmRecord) {
	r.Metrics = Compute(r.Yield, r.PricePerUnit, r.Expenses)
}
