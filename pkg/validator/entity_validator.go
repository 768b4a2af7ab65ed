package validator

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"wealth_manager/internal/domain"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("invalid interest rate")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrMissingName      = errors.New("name is required")
	ErrMissingID        = errors.New("id is required")
	ErrDuplicateID      = errors.New("duplicate id")
)

// maxInterestRate bounds rates as fractions; 5 is 500% a year.
const maxInterestRate = 5.0

type EntityValidator struct {
	frequencies         map[domain.Frequency]struct{}
	assetCategories     map[domain.AssetCategory]struct{}
	liabilityCategories map[domain.LiabilityCategory]struct{}
	recCategories       map[domain.RecommendationCategory]struct{}
}

func NewEntityValidator() *EntityValidator {
	return &EntityValidator{
		frequencies: set(
			domain.FrequencyWeekly, domain.FrequencyBiweekly, domain.FrequencyMonthly,
			domain.FrequencyQuarterly, domain.FrequencyAnnually, domain.FrequencyOneTime,
		),
		assetCategories: set(
			domain.AssetCash, domain.AssetSavings, domain.AssetChecking, domain.AssetInvestment,
			domain.AssetRetirement, domain.AssetRealEstate, domain.AssetVehicle, domain.AssetCrypto,
			domain.AssetOther,
		),
		liabilityCategories: set(
			domain.LiabilityMortgage, domain.LiabilityAutoLoan, domain.LiabilityStudentLoan,
			domain.LiabilityPersonalLoan, domain.LiabilityOther,
		),
		recCategories: set(
			domain.CategorySavings, domain.CategoryInvestment, domain.CategoryDebt,
			domain.CategoryIncome, domain.CategoryBudget,
		),
	}
}

func set[T comparable](values ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func (v *EntityValidator) ValidateIncome(in domain.IncomeInput) error {
	var errs []error

	if strings.TrimSpace(in.Source) == "" {
		errs = append(errs, fmt.Errorf("%w: source", ErrMissingName))
	}
	if err := v.ValidateAmount("amount", in.Amount); err != nil {
		errs = append(errs, err)
	}
	if _, ok := v.frequencies[in.Frequency]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFrequency, in.Frequency))
	}

	return joined(errs)
}

func (v *EntityValidator) ValidateAsset(in domain.AssetInput) error {
	var errs []error

	if _, ok := v.assetCategories[in.Category]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category))
	}
	if err := v.ValidateAmount("value", in.Value); err != nil {
		errs = append(errs, err)
	}
	if math.IsNaN(in.GrowthRate) || math.IsInf(in.GrowthRate, 0) || math.Abs(in.GrowthRate) > maxInterestRate {
		errs = append(errs, fmt.Errorf("%w: growthRate=%v", ErrInvalidRate, in.GrowthRate))
	}

	return joined(errs)
}

func (v *EntityValidator) ValidateLiability(in domain.LiabilityInput) error {
	var errs []error

	if _, ok := v.liabilityCategories[in.Category]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category))
	}
	errs = appendIf(errs, v.ValidateAmount("balance", in.Balance))
	errs = appendIf(errs, v.ValidateAmount("monthlyPayment", in.MonthlyPayment))
	errs = appendIf(errs, v.ValidateRate(in.InterestRate))

	return joined(errs)
}

func (v *EntityValidator) ValidateCreditCard(in domain.CreditCardInput) error {
	var errs []error

	errs = appendIf(errs, v.ValidateAmount("balance", in.Balance))
	errs = appendIf(errs, v.ValidateAmount("creditLimit", in.CreditLimit))
	errs = appendIf(errs, v.ValidateAmount("monthlyPayment", in.MonthlyPayment))
	errs = appendIf(errs, v.ValidateRate(in.InterestRate))

	return joined(errs)
}

func (v *EntityValidator) ValidateStatus(status domain.RecommendationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateIncomeRecord checks a stored income when a snapshot is loaded.
// Unlike ValidateIncome it accepts an empty source, which older data has.
func (v *EntityValidator) ValidateIncomeRecord(in domain.Income) error {
	var errs []error

	errs = appendIf(errs, v.ValidateAmount("amount", in.Amount))
	if _, ok := v.frequencies[in.Frequency]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFrequency, in.Frequency))
	}

	return joined(errs)
}

func (v *EntityValidator) ValidateAssetRecord(a domain.Asset) error {
	return v.ValidateAsset(domain.AssetInput{
		Name:       a.Name,
		Category:   a.Category,
		Value:      a.Value,
		Liquid:     a.Liquid,
		GrowthRate: a.GrowthRate,
	})
}

func (v *EntityValidator) ValidateLiabilityRecord(l domain.Liability) error {
	return v.ValidateLiability(domain.LiabilityInput{
		Name:           l.Name,
		Category:       l.Category,
		Balance:        l.Balance,
		InterestRate:   l.InterestRate,
		MonthlyPayment: l.MonthlyPayment,
	})
}

func (v *EntityValidator) ValidateCreditCardRecord(c domain.CreditCard) error {
	return v.ValidateCreditCard(domain.CreditCardInput{
		Name:           c.Name,
		Balance:        c.Balance,
		CreditLimit:    c.CreditLimit,
		InterestRate:   c.InterestRate,
		MonthlyPayment: c.MonthlyPayment,
	})
}

func (v *EntityValidator) ValidateRecommendation(r domain.Recommendation) error {
	var errs []error

	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, fmt.Errorf("%w: title", ErrMissingName))
	}
	if _, ok := v.recCategories[r.Category]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category))
	}
	errs = appendIf(errs, v.ValidateStatus(r.Status))

	return joined(errs)
}

// ValidateIDs requires every record in a collection to carry a distinct,
// non-empty id.
func ValidateIDs[T any](records []T, id func(T) string) error {
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		key := id(rec)
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: record %d", ErrMissingID, i)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidateAmount accepts finite, non-negative money amounts.
func (v *EntityValidator) ValidateAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: %s=%v", ErrInvalidAmount, field, amount)
	}
	return nil
}

func (v *EntityValidator) ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 || rate > maxInterestRate {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	return nil
}

func appendIf(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func joined(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation errors: %w", errors.Join(errs...))
}
