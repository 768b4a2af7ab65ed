package domain

type CreditCard struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	CreditLimit    float64 `json:"creditLimit"`
	InterestRate   float64 `json:"interestRate"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
}

// Utilization is balance over limit. Cards without a limit report false.
func (c CreditCard) Utilization() (float64, bool) {
	if c.CreditLimit <= 0 {
		return 0, false
	}
	return c.Balance / c.CreditLimit, true
}

type CreditCardInput struct {
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	CreditLimit    float64 `json:"creditLimit"`
	InterestRate   float64 `json:"interestRate"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
}

func (in CreditCardInput) WithID(id string) CreditCard {
	return CreditCard{
		ID:             id,
		Name:           in.Name,
		Balance:        in.Balance,
		CreditLimit:    in.CreditLimit,
		InterestRate:   in.InterestRate,
		MonthlyPayment: in.MonthlyPayment,
	}
}
