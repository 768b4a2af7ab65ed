package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Compactor removes finished recommendations created before cutoff.
// *store.FinancialStore implements it.
type Compactor interface {
	CompactRecommendations(ctx context.Context, cutoff time.Time) int
}

// RetentionService periodically drops completed and dismissed
// recommendations older than the retention period.
type RetentionService struct {
	compactor Compactor
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
	logger    *slog.Logger
}

func NewRetentionService(compactor Compactor, retention time.Duration, logger *slog.Logger) *RetentionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionService{
		compactor: compactor,
		retention: retention,
		cron:      cron.New(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Start schedules the sweep. A zero retention disables it.
func (s *RetentionService) Start(schedule string) error {
	if s.retention <= 0 {
		s.logger.Info("Recommendation retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Run(context.Background()) }); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	s.logger.Info("Recommendation retention scheduled",
		slog.String("schedule", schedule),
		slog.Duration("retention", s.retention))
	return nil
}

// Run performs one sweep and returns how many recommendations it removed.
func (s *RetentionService) Run(ctx context.Context) int {
	cutoff := s.now().Add(-s.retention)
	removed := s.compactor.CompactRecommendations(ctx, cutoff)

	s.logger.InfoContext(ctx, "Recommendation retention sweep",
		slog.Time("cutoff", cutoff),
		slog.Int("removed", removed))
	return removed
}

// Shutdown stops the scheduler and waits for a running sweep.
func (s *RetentionService) Shutdown(ctx context.Context) error {
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
