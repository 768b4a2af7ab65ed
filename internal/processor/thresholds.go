package processor

import (
	"errors"
	"fmt"
	"math"
)

// Thresholds tunes when each rule fires. Ratios and rates are fractions.
type Thresholds struct {
	DebtToIncomeRatio    float64 `json:"debtToIncomeRatio"`
	HighInterestRate     float64 `json:"highInterestRate"`
	EmergencyFundMonths  float64 `json:"emergencyFundMonths"`
	ExpenseShareOfIncome float64 `json:"expenseShareOfIncome"`
	ConcentrationShare   float64 `json:"concentrationShare"`
	UtilizationRatio     float64 `json:"utilizationRatio"`

	// FallbackPaymentRate estimates the monthly obligation of a debt that
	// has no recorded payment, as a fraction of its balance.
	FallbackPaymentRate float64 `json:"fallbackPaymentRate"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DebtToIncomeRatio:    0.36,
		HighInterestRate:     0.10,
		EmergencyFundMonths:  3,
		ExpenseShareOfIncome: 1.0,
		ConcentrationShare:   0.6,
		UtilizationRatio:     0.3,
		FallbackPaymentRate:  0.03,
	}
}

var ErrInvalidThreshold = errors.New("invalid threshold")

func (t Thresholds) Validate() error {
	var errs []error
	check := func(name string, v float64, max float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > max {
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidThreshold, name, v))
		}
	}
	check("debtToIncomeRatio", t.DebtToIncomeRatio, 10)
	check("highInterestRate", t.HighInterestRate, 10)
	check("emergencyFundMonths", t.EmergencyFundMonths, 120)
	check("expenseShareOfIncome", t.ExpenseShareOfIncome, 10)
	check("concentrationShare", t.ConcentrationShare, 1)
	check("utilizationRatio", t.UtilizationRatio, 10)
	check("fallbackPaymentRate", t.FallbackPaymentRate, 1)
	return errors.Join(errs...)
}
