package processor

import (
	"errors"
	"fmt"
	"math"
	"wealth_manager/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrNonFinite        = errors.New("non-finite figure")
	ErrUnknownFrequency = errors.New("unknown income frequency")
)

// Summary holds the derived totals shown next to the raw collections.
// All amounts are per month where a period applies.
type Summary struct {
	MonthlyIncome      float64 `json:"monthlyIncome"`
	MonthlyObligations float64 `json:"monthlyObligations"`
	TotalAssets        float64 `json:"totalAssets"`
	LiquidAssets       float64 `json:"liquidAssets"`
	TotalDebt          float64 `json:"totalDebt"`
	NetWorth           float64 `json:"netWorth"`
	DebtToIncome       float64 `json:"debtToIncome"`
	CreditUtilization  float64 `json:"creditUtilization"`
}

// Summarize computes every figure it can. Figures that cannot be computed
// stay zero and are reported in the joined error.
func Summarize(data *domain.FinancialData, th Thresholds) (Summary, error) {
	var s Summary
	var errs []error

	income, err := MonthlyIncome(data)
	errs = append(errs, err)
	obligations, err := MonthlyObligations(data, th)
	errs = append(errs, err)
	assets, err := TotalAssets(data)
	errs = append(errs, err)
	liquid, err := LiquidAssets(data)
	errs = append(errs, err)
	debt, err := TotalDebt(data)
	errs = append(errs, err)
	limits, err := totalCreditLimit(data)
	errs = append(errs, err)
	cardDebt, err := cardBalances(data)
	errs = append(errs, err)

	s.MonthlyIncome = income.InexactFloat64()
	s.MonthlyObligations = obligations.InexactFloat64()
	s.TotalAssets = assets.InexactFloat64()
	s.LiquidAssets = liquid.InexactFloat64()
	s.TotalDebt = debt.InexactFloat64()
	s.NetWorth = assets.Sub(debt).InexactFloat64()
	if income.IsPositive() {
		s.DebtToIncome = obligations.Div(income).InexactFloat64()
	}
	if limits.IsPositive() {
		s.CreditUtilization = cardDebt.Div(limits).InexactFloat64()
	}

	return s, errors.Join(errs...)
}

func MonthlyIncome(data *domain.FinancialData) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, in := range data.Income {
		monthly, err := monthlyAmount(in)
		if err != nil {
			return decimal.Zero, fmt.Errorf("income %s: %w", in.ID, err)
		}
		total = total.Add(monthly)
	}
	return total, nil
}

func monthlyAmount(in domain.Income) (decimal.Decimal, error) {
	amount, err := toDecimal(in.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	switch in.Frequency {
	case domain.FrequencyWeekly:
		return amount.Mul(decimal.NewFromInt(52)).Div(decimal.NewFromInt(12)), nil
	case domain.FrequencyBiweekly:
		return amount.Mul(decimal.NewFromInt(26)).Div(decimal.NewFromInt(12)), nil
	case domain.FrequencyMonthly:
		return amount, nil
	case domain.FrequencyQuarterly:
		return amount.Div(decimal.NewFromInt(3)), nil
	case domain.FrequencyAnnually:
		return amount.Div(decimal.NewFromInt(12)), nil
	case domain.FrequencyOneTime:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownFrequency, in.Frequency)
	}
}

// MonthlyObligations sums recorded monthly payments across liabilities and
// credit cards, estimating from the balance where no payment is recorded.
func MonthlyObligations(data *domain.FinancialData, th Thresholds) (decimal.Decimal, error) {
	rate, err := toDecimal(th.FallbackPaymentRate)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	add := func(id string, balance, payment float64) error {
		p, err := toDecimal(payment)
		if err != nil {
			return fmt.Errorf("debt %s: %w", id, err)
		}
		if p.IsPositive() {
			total = total.Add(p)
			return nil
		}
		b, err := toDecimal(balance)
		if err != nil {
			return fmt.Errorf("debt %s: %w", id, err)
		}
		total = total.Add(b.Mul(rate))
		return nil
	}
	for _, l := range data.Liabilities {
		if err := add(l.ID, l.Balance, l.MonthlyPayment); err != nil {
			return decimal.Zero, err
		}
	}
	for _, c := range data.CreditCards {
		if err := add(c.ID, c.Balance, c.MonthlyPayment); err != nil {
			return decimal.Zero, err
		}
	}
	return total, nil
}

func TotalAssets(data *domain.FinancialData) (decimal.Decimal, error) {
	return sumAssets(data, func(domain.Asset) bool { return true })
}

func LiquidAssets(data *domain.FinancialData) (decimal.Decimal, error) {
	return sumAssets(data, domain.Asset.IsLiquid)
}

func sumAssets(data *domain.FinancialData, keep func(domain.Asset) bool) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range data.Assets {
		if !keep(a) {
			continue
		}
		v, err := toDecimal(a.Value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

func TotalDebt(data *domain.FinancialData) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range data.Liabilities {
		v, err := toDecimal(l.Balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("liability %s: %w", l.ID, err)
		}
		total = total.Add(v)
	}
	cards, err := cardBalances(data)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Add(cards), nil
}

func cardBalances(data *domain.FinancialData) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range data.CreditCards {
		v, err := toDecimal(c.Balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("credit card %s: %w", c.ID, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

func totalCreditLimit(data *domain.FinancialData) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range data.CreditCards {
		v, err := toDecimal(c.CreditLimit)
		if err != nil {
			return decimal.Zero, fmt.Errorf("credit card %s: %w", c.ID, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

// toDecimal refuses NaN and infinities; decimal.NewFromFloat panics on them.
func toDecimal(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	return decimal.NewFromFloat(f), nil
}
