package domain

type LiabilityCategory string

const (
	LiabilityMortgage     LiabilityCategory = "mortgage"
	LiabilityAutoLoan     LiabilityCategory = "auto-loan"
	LiabilityStudentLoan  LiabilityCategory = "student-loan"
	LiabilityPersonalLoan LiabilityCategory = "personal-loan"
	LiabilityOther        LiabilityCategory = "other"
)

type Liability struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       LiabilityCategory `json:"category"`
	Balance        float64           `json:"balance"`
	InterestRate   float64           `json:"interestRate"`
	MonthlyPayment float64           `json:"monthlyPayment,omitempty"`
}

type LiabilityInput struct {
	Name           string            `json:"name"`
	Category       LiabilityCategory `json:"category"`
	Balance        float64           `json:"balance"`
	InterestRate   float64           `json:"interestRate"`
	MonthlyPayment float64           `json:"monthlyPayment,omitempty"`
}

func (in LiabilityInput) WithID(id string) Liability {
	return Liability{
		ID:             id,
		Name:           in.Name,
		Category:       in.Category,
		Balance:        in.Balance,
		InterestRate:   in.InterestRate,
		MonthlyPayment: in.MonthlyPayment,
	}
}
