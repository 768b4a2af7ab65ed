package domain

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
	FrequencyOneTime   Frequency = "one-time"
)

type Income struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
}

type IncomeInput struct {
	Source    string    `json:"source"`
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
}

func (in IncomeInput) WithID(id string) Income {
	return Income{
		ID:        id,
		Source:    in.Source,
		Amount:    in.Amount,
		Frequency: in.Frequency,
	}
}
