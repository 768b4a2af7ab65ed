package domain

import (
	"time"
)

type RecommendationCategory string
type RecommendationStatus string

const (
	CategorySavings    RecommendationCategory = "savings"
	CategoryInvestment RecommendationCategory = "investment"
	CategoryDebt       RecommendationCategory = "debt"
	CategoryIncome     RecommendationCategory = "income"
	CategoryBudget     RecommendationCategory = "budget"

	StatusPending    RecommendationStatus = "pending"
	StatusInProgress RecommendationStatus = "in-progress"
	StatusCompleted  RecommendationStatus = "completed"
	StatusDismissed  RecommendationStatus = "dismissed"
)

const (
	TitleEmergencyFund    = "Build Emergency Fund"
	TitleDiversify        = "Diversify Investments"
	TitleHighInterestDebt = "Pay Down High-Interest Debt"
	TitleDebtLoad         = "Reduce Debt Load"
	TitleUtilization      = "Reduce Credit Utilization"
)

type Recommendation struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    RecommendationCategory `json:"category"`
	Status      RecommendationStatus   `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Draft is a recommendation proposed by the rule engine, before an id and
// timestamp are assigned.
type Draft struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    RecommendationCategory `json:"category"`
}

func (d Draft) Accept(id string, now time.Time) Recommendation {
	return Recommendation{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

func (s RecommendationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDismissed:
		return true
	}
	return false
}

// Terminal statuses never transition again.
func (s RecommendationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDismissed
}

// CanTransition reports whether a recommendation may move from s to next.
// Repeating the current status is allowed and is a no-op for callers.
func (s RecommendationStatus) CanTransition(next RecommendationStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next != StatusPending
	case StatusInProgress:
		return next == StatusCompleted || next == StatusDismissed
	default:
		return false
	}
}

var seedDrafts = []Draft{
	{
		Title:       TitleEmergencyFund,
		Description: "Aim to save 3-6 months of expenses in a liquid savings account for unexpected situations.",
		Category:    CategorySavings,
	},
	{
		Title:       TitleDiversify,
		Description: "Consider spreading your investments across different asset classes to reduce risk.",
		Category:    CategoryInvestment,
	},
	{
		Title:       TitleHighInterestDebt,
		Description: "Focus on paying off credit cards and loans with interest rates above 10% first.",
		Category:    CategoryDebt,
	},
}

// SeedRecommendations returns the recommendations a first run starts with.
func SeedRecommendations(newID func() string, now time.Time) []Recommendation {
	recs := make([]Recommendation, 0, len(seedDrafts))
	for _, d := range seedDrafts {
		recs = append(recs, d.Accept(newID(), now))
	}
	return recs
}
