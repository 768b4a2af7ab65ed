package processor

import (
	"slices"
	"time"
	"wealth_manager/internal/domain"
)

// Merge appends the drafts that are not already recommended. A draft is
// rejected while any recommendation with the same title is not dismissed,
// including one accepted earlier in the same call. existing is not
// modified; the accepted records are the tail of the result.
func Merge(existing []domain.Recommendation, drafts []domain.Draft, newID func() string, now time.Time) []domain.Recommendation {
	merged := slices.Clone(existing)
	if merged == nil {
		merged = []domain.Recommendation{}
	}

	active := make(map[string]bool, len(existing))
	for _, r := range existing {
		if r.Status != domain.StatusDismissed {
			active[r.Title] = true
		}
	}

	for _, d := range drafts {
		if active[d.Title] {
			continue
		}
		merged = append(merged, d.Accept(newID(), now))
		active[d.Title] = true
	}

	return merged
}
