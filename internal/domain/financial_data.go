package domain

import (
	"slices"
	"time"
)

// FinancialData is the complete snapshot: four fact collections plus the
// derived recommendations. It is persisted and evaluated as one unit.
type FinancialData struct {
	Income          []Income         `json:"income"`
	Assets          []Asset          `json:"assets"`
	Liabilities     []Liability      `json:"liabilities"`
	CreditCards     []CreditCard     `json:"creditCards"`
	Recommendations []Recommendation `json:"recommendations"`
}

func NewSeedData(newID func() string, now time.Time) *FinancialData {
	return &FinancialData{
		Income:          []Income{},
		Assets:          []Asset{},
		Liabilities:     []Liability{},
		CreditCards:     []CreditCard{},
		Recommendations: SeedRecommendations(newID, now),
	}
}

// Clone copies every collection so the result shares no backing arrays
// with d. Records hold no references, so a slice copy is a deep copy.
func (d *FinancialData) Clone() *FinancialData {
	if d == nil {
		return nil
	}
	return &FinancialData{
		Income:          cloneOrEmpty(d.Income),
		Assets:          cloneOrEmpty(d.Assets),
		Liabilities:     cloneOrEmpty(d.Liabilities),
		CreditCards:     cloneOrEmpty(d.CreditCards),
		Recommendations: cloneOrEmpty(d.Recommendations),
	}
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

func (d *FinancialData) IncomeIndex(id string) int {
	return slices.IndexFunc(d.Income, func(i Income) bool { return i.ID == id })
}

func (d *FinancialData) AssetIndex(id string) int {
	return slices.IndexFunc(d.Assets, func(a Asset) bool { return a.ID == id })
}

func (d *FinancialData) LiabilityIndex(id string) int {
	return slices.IndexFunc(d.Liabilities, func(l Liability) bool { return l.ID == id })
}

func (d *FinancialData) CreditCardIndex(id string) int {
	return slices.IndexFunc(d.CreditCards, func(c CreditCard) bool { return c.ID == id })
}

func (d *FinancialData) RecommendationIndex(id string) int {
	return slices.IndexFunc(d.Recommendations, func(r Recommendation) bool { return r.ID == id })
}

// CountByStatus tallies recommendations per status.
func (d *FinancialData) CountByStatus() map[RecommendationStatus]int {
	counts := map[RecommendationStatus]int{
		StatusPending:    0,
		StatusInProgress: 0,
		StatusCompleted:  0,
		StatusDismissed:  0,
	}
	for _, r := range d.Recommendations {
		counts[r.Status]++
	}
	return counts
}
