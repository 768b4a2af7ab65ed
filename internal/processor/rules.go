package processor

import (
	"fmt"
	"math"
	"sort"
	"wealth_manager/internal/domain"

	"github.com/shopspring/decimal"
)

// Rule inspects a snapshot and proposes at most one draft. A nil draft
// means the rule is not due.
type Rule struct {
	Name     string
	Evaluate func(data *domain.FinancialData, th Thresholds) (*domain.Draft, error)
}

// DefaultRules are evaluated in this order; the order is the order drafts
// are appended in.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "debt_to_income", Evaluate: debtToIncomeRule},
		{Name: "high_interest", Evaluate: highInterestRule},
		{Name: "emergency_fund", Evaluate: emergencyFundRule},
		{Name: "concentration", Evaluate: concentrationRule},
		{Name: "utilization", Evaluate: utilizationRule},
	}
}

func debtToIncomeRule(data *domain.FinancialData, th Thresholds) (*domain.Draft, error) {
	income, err := MonthlyIncome(data)
	if err != nil {
		return nil, err
	}
	if !income.IsPositive() {
		return nil, nil
	}
	obligations, err := MonthlyObligations(data, th)
	if err != nil {
		return nil, err
	}
	ratio, err := finiteRatio(obligations, income)
	if err != nil {
		return nil, err
	}
	if ratio <= th.DebtToIncomeRatio {
		return nil, nil
	}
	description := fmt.Sprintf(
		"Your monthly debt payments take %.0f%% of your income, above the %.0f%% guideline. Prioritize paying balances down before taking on new debt.",
		ratio*100, th.DebtToIncomeRatio*100)
	return &domain.Draft{
		Title:       domain.TitleDebtLoad,
		Description: description,
		Category:    domain.CategoryDebt,
	}, nil
}

func highInterestRule(data *domain.FinancialData, th Thresholds) (*domain.Draft, error) {
	var count int
	check := func(kind, id string, balance, rate float64) error {
		if !finite(rate) || !finite(balance) {
			return fmt.Errorf("%s %s: %w", kind, id, ErrNonFinite)
		}
		if balance > 0 && rate > th.HighInterestRate {
			count++
		}
		return nil
	}
	for _, l := range data.Liabilities {
		if err := check("liability", l.ID, l.Balance, l.InterestRate); err != nil {
			return nil, err
		}
	}
	for _, c := range data.CreditCards {
		if err := check("credit card", c.ID, c.Balance, c.InterestRate); err != nil {
			return nil, err
		}
	}
	if count == 0 {
		return nil, nil
	}
	description := fmt.Sprintf(
		"%d of your debts charge more than %.0f%% interest. Pay these off first to reduce what you pay in interest.",
		count, th.HighInterestRate*100)
	return &domain.Draft{
		Title:       domain.TitleHighInterestDebt,
		Description: description,
		Category:    domain.CategoryDebt,
	}, nil
}

func emergencyFundRule(data *domain.FinancialData, th Thresholds) (*domain.Draft, error) {
	income, err := MonthlyIncome(data)
	if err != nil {
		return nil, err
	}
	if !income.IsPositive() {
		return nil, nil
	}
	liquid, err := LiquidAssets(data)
	if err != nil {
		return nil, err
	}
	share, err := toDecimal(th.ExpenseShareOfIncome)
	if err != nil {
		return nil, err
	}
	months, err := toDecimal(th.EmergencyFundMonths)
	if err != nil {
		return nil, err
	}
	target := income.Mul(share).Mul(months)
	if liquid.GreaterThanOrEqual(target) {
		return nil, nil
	}
	description := fmt.Sprintf(
		"You hold %s in liquid savings. Aim for at least %s, about %.0f months of expenses, in an easily accessible account.",
		liquid.StringFixed(2), target.StringFixed(2), th.EmergencyFundMonths)
	return &domain.Draft{
		Title:       domain.TitleEmergencyFund,
		Description: description,
		Category:    domain.CategorySavings,
	}, nil
}

func concentrationRule(data *domain.FinancialData, th Thresholds) (*domain.Draft, error) {
	total, err := TotalAssets(data)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, nil
	}

	byCategory := make(map[domain.AssetCategory]decimal.Decimal)
	for _, a := range data.Assets {
		v, err := toDecimal(a.Value)
		if err != nil {
			return nil, err
		}
		byCategory[a.Category] = byCategory[a.Category].Add(v)
	}

	categories := make([]domain.AssetCategory, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var top domain.AssetCategory
	topShare := -1.0
	for _, c := range categories {
		share, err := finiteRatio(byCategory[c], total)
		if err != nil {
			return nil, err
		}
		if share > topShare {
			top, topShare = c, share
		}
	}
	if topShare <= th.ConcentrationShare {
		return nil, nil
	}
	description := fmt.Sprintf(
		"%.0f%% of your assets sit in %s. Spreading them across asset classes reduces the impact of any single one falling.",
		topShare*100, top)
	return &domain.Draft{
		Title:       domain.TitleDiversify,
		Description: description,
		Category:    domain.CategoryInvestment,
	}, nil
}

func utilizationRule(data *domain.FinancialData, th Thresholds) (*domain.Draft, error) {
	var over int
	for _, c := range data.CreditCards {
		ratio, ok := c.Utilization()
		if !ok {
			continue
		}
		if !finite(ratio) {
			return nil, fmt.Errorf("credit card %s: %w", c.ID, ErrNonFinite)
		}
		if ratio > th.UtilizationRatio {
			over++
		}
	}
	if over == 0 {
		return nil, nil
	}
	description := fmt.Sprintf(
		"%d credit card(s) use more than %.0f%% of their limit. Keeping utilization low helps your credit score.",
		over, th.UtilizationRatio*100)
	return &domain.Draft{
		Title:       domain.TitleUtilization,
		Description: description,
		Category:    domain.CategoryDebt,
	}, nil
}

func finiteRatio(num, den decimal.Decimal) (float64, error) {
	if den.IsZero() {
		return 0, fmt.Errorf("%w: division by zero", ErrNonFinite)
	}
	r := num.Div(den).InexactFloat64()
	if !finite(r) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, r)
	}
	return r, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
