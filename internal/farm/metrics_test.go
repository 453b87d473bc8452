package farm

import (
	"math"
	"testing"

	"github.com/iliyamo/smart-farming/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeYieldKg(t *testing.T) {
	cases := []struct {
		yield model.Yield
		want  float64
	}{
		{model.Yield{Amount: 1200, Unit: model.YieldUnitKg}, 1200},
		{model.Yield{Amount: 2, Unit: model.YieldUnitTonnes}, 2000},
		{model.Yield{Amount: 0.5, Unit: model.YieldUnitTonnes}, 500},
		{model.Yield{Amount: 0, Unit: model.YieldUnitTonnes}, 0},
		{model.Yield{Amount: 7, Unit: ""}, 7},
	}
	for _, tc := range cases {
		if got := NormalizeYieldKg(tc.yield); got != tc.want {
			t.Errorf("NormalizeYieldKg(%+v) = %v, want %v", tc.yield, got, tc.want)
		}
	}
}

func TestCompute_Scenarios(t *testing.T) {
	cases := []struct {
		name     string
		yield    model.Yield
		price    float64
		expenses model.Expenses
		want     model.Metrics
	}{
		{
			name:  "kg yield with all expenses",
			yield: model.Yield{Amount: 1200, Unit: model.YieldUnitKg},
			price: 25,
			expenses: model.Expenses{
				Seeds: 2000, Fertilizers: 1500, Pesticides: 500,
				Irrigation: 800, Labor: 3000, Others: 200,
			},
			want: model.Metrics{Revenue: 30000, TotalExpenses: 8000, NetProfit: 22000, ProfitMargin: 22000.0 / 30000.0 * 100},
		},
		{
			name:  "tonnes yield without expenses",
			yield: model.Yield{Amount: 2, Unit: model.YieldUnitTonnes},
			price: 20,
			want:  model.Metrics{Revenue: 40000, TotalExpenses: 0, NetProfit: 40000, ProfitMargin: 100},
		},
		{
			name:     "zero yield guards the margin",
			yield:    model.Yield{Amount: 0, Unit: model.YieldUnitKg},
			price:    30,
			expenses: model.Expenses{Seeds: 100},
			want:     model.Metrics{Revenue: 0, TotalExpenses: 100, NetProfit: -100, ProfitMargin: 0},
		},
		{
			name:     "zero price guards the margin",
			yield:    model.Yield{Amount: 50, Unit: model.YieldUnitKg},
			price:    0,
			expenses: model.Expenses{Labor: 10},
			want:     model.Metrics{Revenue: 0, TotalExpenses: 10, NetProfit: -10, ProfitMargin: 0},
		},
		{
			name:     "loss gives a negative margin",
			yield:    model.Yield{Amount: 100, Unit: model.YieldUnitKg},
			price:    10,
			expenses: model.Expenses{Seeds: 500, Labor: 1000},
			want:     model.Metrics{Revenue: 1000, TotalExpenses: 1500, NetProfit: -500, ProfitMargin: -50},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.yield, tc.price, tc.expenses)
			if got.Revenue != tc.want.Revenue {
				t.Errorf("Revenue = %v, want %v", got.Revenue, tc.want.Revenue)
			}
			if got.TotalExpenses != tc.want.TotalExpenses {
				t.Errorf("TotalExpenses = %v, want %v", got.TotalExpenses, tc.want.TotalExpenses)
			}
			if got.NetProfit != tc.want.NetProfit {
				t.Errorf("NetProfit = %v, want %v", got.NetProfit, tc.want.NetProfit)
			}
			if !almostEqual(got.ProfitMargin, tc.want.ProfitMargin) {
				t.Errorf("ProfitMargin = %v, want %v", got.ProfitMargin, tc.want.ProfitMargin)
			}
			if math.IsNaN(got.ProfitMargin) || math.IsInf(got.ProfitMargin, 0) {
				t.Errorf("ProfitMargin = %v, want a finite number", got.ProfitMargin)
			}
		})
	}
}

func TestCompute_FirstScenarioMarginRounded(t *testing.T) {
	m := Compute(model.Yield{Amount: 1200, Unit: model.YieldUnitKg}, 25, model.Expenses{
		Seeds: 2000, Fertilizers: 1500, Pesticides: 500, Irrigation: 800, Labor: 3000, Others: 200,
	})
	if got := math.Round(m.ProfitMargin*100) / 100; got != 73.33 {
		t.Errorf("rounded ProfitMargin = %v, want 73.33", got)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	y := model.Yield{Amount: 3.7, Unit: model.YieldUnitTonnes}
	e := model.Expenses{Seeds: 12.5, Fertilizers: 0.1, Labor: 999.99}
	first := Compute(y, 17.3, e)
	second := Compute(y, 17.3, e)
	if first != second {
		t.Errorf("Compute not deterministic: %+v != %+v", first, second)
	}
}

func TestRecompute_OverwritesClientMetrics(t *testing.T) {
	r := model.FarmRecord{
		Yield:        model.Yield{Amount: 10, Unit: model.YieldUnitKg},
		PricePerUnit: 5,
		Expenses:     model.Expenses{Others: 20},
		Metrics:      model.Metrics{Revenue: 1e9, NetProfit: 1e9, ProfitMargin: 99},
	}
	Recompute(&r)
	want := model.Metrics{Revenue: 50, TotalExpenses: 20, NetProfit: 30, ProfitMargin: 60}
	if r.Metrics != want {
		t.Errorf("Recompute() metrics = %+v, want %+v", r.Metrics, want)
	}
}

func TestTotalExpenses(t *testing.T) {
	e := model.Expenses{Seeds: 1, Fertilizers: 2, Pesticides: 3, Irrigation: 4, Labor: 5, Others: 6}
	if got := TotalExpenses(e); got != 21 {
		t.Errorf("TotalExpenses() = %v, want 21", got)
	}
	if got := TotalExpenses(model.Expenses{}); got != 0 {
		t.Errorf("TotalExpenses(empty) = %v, want 0", got)
	}
}

func TestMargin_NonFiniteRatio(t *testing.T) {
	cases := []struct{ net, revenue float64 }{
		{math.Inf(1), math.Inf(1)},
		{math.NaN(), 100},
		{math.MaxFloat64, math.SmallestNonzeroFloat64},
	}
	for _, tc := range cases {
		if got := Margin(tc.net, tc.revenue); got != 0 {
			t.Errorf("Margin(%v, %v) = %v, want 0", tc.net, tc.revenue, got)
		}
	}
}
