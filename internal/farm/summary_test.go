package farm

import (
	"testing"

	"github.com/iliyamo/smart-farming/internal/model"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Records != 0 || s.Revenue != 0 || s.ProfitMargin != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero totals", s)
	}
	if s.BySeason == nil || s.ByCrop == nil {
		t.Error("Summarize(nil) breakdowns are nil, want empty slices")
	}
}

func TestSummarize_TotalsMatchPerRecordFigures(t *testing.T) {
	records := []model.FarmRecord{
		{
			CropName: "Wheat", Season: model.SeasonRabi,
			Yield: model.Yield{Amount: 1200, Unit: model.YieldUnitKg}, PricePerUnit: 25,
			Expenses: model.Expenses{Seeds: 2000, Fertilizers: 1500, Pesticides: 500, Irrigation: 800, Labor: 3000, Others: 200},
		},
		{
			CropName: "Rice", Season: model.SeasonKharif,
			Yield: model.Yield{Amount: 2, Unit: model.YieldUnitTonnes}, PricePerUnit: 20,
		},
		{
			CropName: "Wheat", Season: model.SeasonKharif,
			Yield: model.Yield{Amount: 0, Unit: model.YieldUnitKg}, PricePerUnit: 30,
			Expenses: model.Expenses{Seeds: 100},
			// stale stored figures must be ignored
			Metrics: model.Metrics{Revenue: 123456, NetProfit: 123456},
		},
	}

	s := Summarize(records)

	var want model.Metrics
	var yieldKg float64
	for _, r := range records {
		m := Compute(r.Yield, r.PricePerUnit, r.Expenses)
		want.Revenue += m.Revenue
		want.TotalExpenses += m.TotalExpenses
		want.NetProfit += m.NetProfit
		yieldKg += NormalizeYieldKg(r.Yield)
	}
	if s.Records != 3 {
		t.Errorf("Records = %d, want 3", s.Records)
	}
	if s.Revenue != want.Revenue || s.TotalExpenses != want.TotalExpenses || s.NetProfit != want.NetProfit {
		t.Errorf("totals = %+v, want %+v", s.Metrics, want)
	}
	if s.Revenue != 70000 || s.TotalExpenses != 8100 || s.NetProfit != 61900 {
		t.Errorf("totals = %+v, want revenue 70000 expenses 8100 net 61900", s.Metrics)
	}
	if !almostEqual(s.ProfitMargin, 61900.0/70000.0*100) {
		t.Errorf("ProfitMargin = %v, want %v", s.ProfitMargin, 61900.0/70000.0*100)
	}
	if s.TotalYieldKg != yieldKg || s.TotalYieldKg != 3200 {
		t.Errorf("TotalYieldKg = %v, want 3200", s.TotalYieldKg)
	}
	if s.Expenses.Seeds != 2100 {
		t.Errorf("Expenses.Seeds = %v, want 2100", s.Expenses.Seeds)
	}

	if len(s.BySeason) != 2 || s.BySeason[0].Key != "Kharif" || s.BySeason[1].Key != "Rabi" {
		t.Fatalf("BySeason = %+v, want Kharif then Rabi", s.BySeason)
	}
	kharif := s.BySeason[0]
	if kharif.Records != 2 || kharif.Revenue != 40000 || kharif.NetProfit != 39900 {
		t.Errorf("Kharif = %+v, want 2 records, revenue 40000, net 39900", kharif)
	}

	if len(s.ByCrop) != 2 || s.ByCrop[0].Key != "Rice" || s.ByCrop[1].Key != "Wheat" {
		t.Fatalf("ByCrop = %+v, want Rice then Wheat", s.ByCrop)
	}
	wheat := s.ByCrop[1]
	if wheat.Records != 2 || wheat.Revenue != 30000 || wheat.TotalExpenses != 8100 {
		t.Errorf("Wheat = %+v, want 2 records, revenue 30000, expenses 8100", wheat)
	}
}

func TestSummarize_AllZeroRevenueKeepsMarginFinite(t *testing.T) {
	s := Summarize([]model.FarmRecord{{
		CropName: "Millet", Season: model.SeasonSummer,
		Yield:    model.Yield{Unit: model.YieldUnitKg},
		Expenses: model.Expenses{Labor: 50},
	}})
	if s.ProfitMargin != 0 || s.ByCrop[0].ProfitMargin != 0 {
		t.Errorf("margins = %v / %v, want 0", s.ProfitMargin, s.ByCrop[0].ProfitMargin)
	}
	if s.NetProfit != -50 {
		t.Errorf("NetProfit = %v, want -50", s.NetProfit)
	}
}
