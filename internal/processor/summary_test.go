package processor

import (
	"errors"
	"math"
	"testing"
	"wealth_manager/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	data := &domain.FinancialData{
		Income: []domain.Income{
			{ID: "i1", Amount: 3000, Frequency: domain.FrequencyMonthly},
			{ID: "i2", Amount: 12000, Frequency: domain.FrequencyAnnually},
			{ID: "i3", Amount: 500, Frequency: domain.FrequencyOneTime},
		},
		Assets: []domain.Asset{
			{ID: "a1", Category: domain.AssetChecking, Value: 2500},
			{ID: "a2", Category: domain.AssetInvestment, Value: 7500},
		},
		Liabilities: []domain.Liability{{ID: "l1", Balance: 6000, MonthlyPayment: 250}},
		CreditCards: []domain.CreditCard{{ID: "c1", Balance: 1000, CreditLimit: 4000}},
	}

	s, err := Summarize(data, DefaultThresholds())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(s.MonthlyIncome, 4000) {
		t.Errorf("expected monthly income 4000, got %v", s.MonthlyIncome)
	}
	if !approx(s.MonthlyObligations, 280) {
		t.Errorf("expected obligations 250 + 3%% of 1000 = 280, got %v", s.MonthlyObligations)
	}
	if !approx(s.LiquidAssets, 2500) || !approx(s.TotalAssets, 10000) {
		t.Errorf("unexpected asset totals %+v", s)
	}
	if !approx(s.NetWorth, 3000) {
		t.Errorf("expected net worth 3000, got %v", s.NetWorth)
	}
	if !approx(s.DebtToIncome, 0.07) {
		t.Errorf("expected debt-to-income 0.07, got %v", s.DebtToIncome)
	}
	if !approx(s.CreditUtilization, 0.25) {
		t.Errorf("expected utilization 0.25, got %v", s.CreditUtilization)
	}
}

func TestSummarize_WeeklyIncome(t *testing.T) {
	data := &domain.FinancialData{
		Income: []domain.Income{{ID: "i1", Amount: 120, Frequency: domain.FrequencyWeekly}},
	}

	s, _ := Summarize(data, DefaultThresholds())

	if !approx(s.MonthlyIncome, 520) {
		t.Errorf("expected 120*52/12 = 520, got %v", s.MonthlyIncome)
	}
}

func TestSummarize_ReportsNonFinite(t *testing.T) {
	data := &domain.FinancialData{
		Assets: []domain.Asset{{ID: "a1", Value: math.Inf(1)}},
	}

	_, err := Summarize(data, DefaultThresholds())

	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}
