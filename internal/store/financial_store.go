// Package store holds the financial state store: the single owner of the
// snapshot, the only place it is mutated, and the trigger for rule
// evaluation and persistence.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/processor"
	"wealth_manager/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("invalid recommendation status")
	ErrInvalidTransition = errors.New("invalid recommendation status transition")
)

// MetricsRecorder receives store activity. *metrics.MetricsCollector
// implements it.
type MetricsRecorder interface {
	RecordMutation(entity, operation string)
	RecordRecommendationCreated(category domain.RecommendationCategory)
	RecordPersistenceFailure()
	ObserveSnapshot(counts map[domain.RecommendationStatus]int, netWorth, monthlyIncome float64)
}

// Notifier is handed every newly created recommendation. It must not block.
type Notifier interface {
	NotifyRecommendation(rec domain.Recommendation) bool
}

// FinancialStore owns the snapshot. Every mutation builds a new snapshot
// and swaps it in, so a snapshot once published is never changed.
type FinancialStore struct {
	mu      sync.RWMutex
	data    *domain.FinancialData
	repo    repository.SnapshotRepository
	engine  *processor.RuleEngine
	metrics MetricsRecorder
	notify  Notifier
	logger  *slog.Logger

	newID            func() string
	now              func() time.Time
	reevaluateAlways bool
	persistTimeout   time.Duration
}

type Option func(*FinancialStore)

func WithMetrics(m MetricsRecorder) Option {
	return func(s *FinancialStore) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *FinancialStore) { s.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *FinancialStore) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *FinancialStore) { s.newID = newID }
}

// WithReevaluateOnEveryMutation makes updates and deletes of fact entities
// run the rules too. By default only additions do.
func WithReevaluateOnEveryMutation(enabled bool) Option {
	return func(s *FinancialStore) { s.reevaluateAlways = enabled }
}

// New loads the persisted snapshot, or seeds one on first run.
func New(ctx context.Context, repo repository.SnapshotRepository, engine *processor.RuleEngine, logger *slog.Logger, opts ...Option) (*FinancialStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &FinancialStore{
		repo:           repo,
		engine:         engine,
		logger:         logger,
		newID:          uuid.NewString,
		now:            func() time.Time { return time.Now().UTC() },
		persistTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		data = domain.NewSeedData(s.newID, s.now())
		logger.InfoContext(ctx, "No persisted snapshot, starting from seed",
			slog.Int("recommendations", len(data.Recommendations)))
		// Seed ids must be stable across restarts.
		if err := repo.Save(ctx, data); err != nil {
			logger.ErrorContext(ctx, "Failed to persist seed snapshot", slog.String("error", err.Error()))
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	default:
		logger.InfoContext(ctx, "Snapshot loaded",
			slog.Int("income", len(data.Income)),
			slog.Int("assets", len(data.Assets)),
			slog.Int("liabilities", len(data.Liabilities)),
			slog.Int("credit_cards", len(data.CreditCards)),
			slog.Int("recommendations", len(data.Recommendations)))
	}

	s.data = data.Clone()
	s.observe(s.data)

	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *FinancialStore) Snapshot() *domain.FinancialData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *FinancialStore) Thresholds() processor.Thresholds {
	return s.engine.Thresholds()
}

// Close persists the current snapshot one last time.
func (s *FinancialStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, s.data); err != nil {
		return fmt.Errorf("failed to save snapshot on close: %w", err)
	}
	return nil
}

func (s *FinancialStore) AddIncome(ctx context.Context, in domain.IncomeInput) domain.Income {
	var added domain.Income
	s.mutate(ctx, "income", "add", func(next *domain.FinancialData) bool {
		added = in.WithID(s.newID())
		next.Income = append(next.Income, added)
		return true
	})
	return added
}

func (s *FinancialStore) UpdateIncome(ctx context.Context, id string, in domain.IncomeInput) {
	s.mutate(ctx, "income", "update", func(next *domain.FinancialData) bool {
		i := next.IncomeIndex(id)
		if i < 0 {
			return false
		}
		next.Income[i] = in.WithID(id)
		return true
	})
}

func (s *FinancialStore) DeleteIncome(ctx context.Context, id string) {
	s.mutate(ctx, "income", "delete", func(next *domain.FinancialData) bool {
		i := next.IncomeIndex(id)
		if i < 0 {
			return false
		}
		next.Income = slices.Delete(next.Income, i, i+1)
		return true
	})
}

func (s *FinancialStore) AddAsset(ctx context.Context, in domain.AssetInput) domain.Asset {
	var added domain.Asset
	s.mutate(ctx, "asset", "add", func(next *domain.FinancialData) bool {
		added = in.WithID(s.newID())
		next.Assets = append(next.Assets, added)
		return true
	})
	return added
}

func (s *FinancialStore) UpdateAsset(ctx context.Context, id string, in domain.AssetInput) {
	s.mutate(ctx, "asset", "update", func(next *domain.FinancialData) bool {
		i := next.AssetIndex(id)
		if i < 0 {
			return false
		}
		next.Assets[i] = in.WithID(id)
		return true
	})
}

func (s *FinancialStore) DeleteAsset(ctx context.Context, id string) {
	s.mutate(ctx, "asset", "delete", func(next *domain.FinancialData) bool {
		i := next.AssetIndex(id)
		if i < 0 {
			return false
		}
		next.Assets = slices.Delete(next.Assets, i, i+1)
		return true
	})
}

func (s *FinancialStore) AddLiability(ctx context.Context, in domain.LiabilityInput) domain.Liability {
	var added domain.Liability
	s.mutate(ctx, "liability", "add", func(next *domain.FinancialData) bool {
		added = in.WithID(s.newID())
		next.Liabilities = append(next.Liabilities, added)
		return true
	})
	return added
}

func (s *FinancialStore) UpdateLiability(ctx context.Context, id string, in domain.LiabilityInput) {
	s.mutate(ctx, "liability", "update", func(next *domain.FinancialData) bool {
		i := next.LiabilityIndex(id)
		if i < 0 {
			return false
		}
		next.Liabilities[i] = in.WithID(id)
		return true
	})
}

func (s *FinancialStore) DeleteLiability(ctx context.Context, id string) {
	s.mutate(ctx, "liability", "delete", func(next *domain.FinancialData) bool {
		i := next.LiabilityIndex(id)
		if i < 0 {
			return false
		}
		next.Liabilities = slices.Delete(next.Liabilities, i, i+1)
		return true
	})
}

func (s *FinancialStore) AddCreditCard(ctx context.Context, in domain.CreditCardInput) domain.CreditCard {
	var added domain.CreditCard
	s.mutate(ctx, "credit_card", "add", func(next *domain.FinancialData) bool {
		added = in.WithID(s.newID())
		next.CreditCards = append(next.CreditCards, added)
		return true
	})
	return added
}

func (s *FinancialStore) UpdateCreditCard(ctx context.Context, id string, in domain.CreditCardInput) {
	s.mutate(ctx, "credit_card", "update", func(next *domain.FinancialData) bool {
		i := next.CreditCardIndex(id)
		if i < 0 {
			return false
		}
		next.CreditCards[i] = in.WithID(id)
		return true
	})
}

func (s *FinancialStore) DeleteCreditCard(ctx context.Context, id string) {
	s.mutate(ctx, "credit_card", "delete", func(next *domain.FinancialData) bool {
		i := next.CreditCardIndex(id)
		if i < 0 {
			return false
		}
		next.CreditCards = slices.Delete(next.CreditCards, i, i+1)
		return true
	})
}

// UpdateRecommendationStatus moves a recommendation forward. An unknown id
// is ignored; an unknown status or a backward move is an error and leaves
// the snapshot unchanged. Rules are never re-run here.
func (s *FinancialStore) UpdateRecommendationStatus(ctx context.Context, id string, status domain.RecommendationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.data.RecommendationIndex(id)
	if i < 0 {
		return nil
	}
	current := s.data.Recommendations[i].Status
	if !current.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}
	if current == status {
		return nil
	}

	next := s.data.Clone()
	next.Recommendations[i].Status = status
	s.commitLocked(ctx, next, "recommendation", "update_status")

	s.logger.InfoContext(ctx, "Recommendation status updated",
		slog.String("recommendation_id", id),
		slog.String("from", string(current)),
		slog.String("to", string(status)))
	return nil
}

// CompactRecommendations drops completed and dismissed recommendations
// created before cutoff. Pending and in-progress ones are always kept.
// It returns how many were removed.
func (s *FinancialStore) CompactRecommendations(ctx context.Context, cutoff time.Time) int {
	var removed int
	s.mutate(ctx, "recommendation", "compact", func(next *domain.FinancialData) bool {
		before := len(next.Recommendations)
		next.Recommendations = slices.DeleteFunc(next.Recommendations, func(r domain.Recommendation) bool {
			return r.Status.Terminal() && r.CreatedAt.Before(cutoff)
		})
		removed = before - len(next.Recommendations)
		return removed > 0
	})
	return removed
}

// mutate applies change to a copy of the snapshot. When change reports no
// effect nothing is evaluated or written.
func (s *FinancialStore) mutate(ctx context.Context, entity, operation string, change func(next *domain.FinancialData) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.Clone()
	if !change(next) {
		s.logger.DebugContext(ctx, "Mutation had no effect",
			slog.String("entity", entity),
			slog.String("operation", operation))
		return
	}

	var created []domain.Recommendation
	if s.shouldEvaluate(entity, operation) {
		created = s.evaluateLocked(ctx, next)
	}

	s.commitLocked(ctx, next, entity, operation)

	for _, rec := range created {
		if s.metrics != nil {
			s.metrics.RecordRecommendationCreated(rec.Category)
		}
		if s.notify != nil && !s.notify.NotifyRecommendation(rec) {
			s.logger.WarnContext(ctx, "Recommendation notification dropped",
				slog.String("recommendation_id", rec.ID))
		}
	}
}

func (s *FinancialStore) shouldEvaluate(entity, operation string) bool {
	if entity == "recommendation" {
		return false
	}
	return operation == "add" || s.reevaluateAlways
}

// evaluateLocked runs the rules on next and appends the accepted drafts to
// it, returning them.
func (s *FinancialStore) evaluateLocked(ctx context.Context, next *domain.FinancialData) []domain.Recommendation {
	drafts := s.engine.Evaluate(ctx, next)
	before := len(next.Recommendations)
	next.Recommendations = processor.Merge(next.Recommendations, drafts, s.newID, s.now())
	created := next.Recommendations[before:]

	for _, rec := range created {
		s.logger.InfoContext(ctx, "Recommendation created",
			slog.String("recommendation_id", rec.ID),
			slog.String("title", rec.Title),
			slog.String("category", string(rec.Category)))
	}
	return created
}

// commitLocked publishes next and persists it. A failed save is logged and
// counted; the in-memory snapshot stays authoritative.
func (s *FinancialStore) commitLocked(ctx context.Context, next *domain.FinancialData, entity, operation string) {
	s.data = next

	if s.metrics != nil {
		s.metrics.RecordMutation(entity, operation)
	}
	s.observe(next)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := s.repo.Save(saveCtx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot",
			slog.String("entity", entity),
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.RecordPersistenceFailure()
		}
	}
}

func (s *FinancialStore) observe(data *domain.FinancialData) {
	if s.metrics == nil {
		return
	}
	summary, err := processor.Summarize(data, s.engine.Thresholds())
	if err != nil {
		s.logger.Warn("Snapshot summary incomplete", slog.String("error", err.Error()))
	}
	s.metrics.ObserveSnapshot(data.CountByStatus(), summary.NetWorth, summary.MonthlyIncome)
}
