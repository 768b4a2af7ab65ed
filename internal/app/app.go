// Package app wires configuration into a ready financial store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"wealth_manager/internal/config"
	"wealth_manager/internal/processor"
	"wealth_manager/internal/repository"
	"wealth_manager/internal/repository/file"
	"wealth_manager/internal/repository/memory"
	"wealth_manager/internal/repository/postgres"
	"wealth_manager/internal/store"
	"wealth_manager/pkg/crypto"
)

// OpenRepository picks the persistence backend named by cfg.StorageDriver.
// The returned close function is never nil.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.SnapshotRepository, func() error, error) {
	codec := repository.NewSnapshotCodec(crypto.NewSigner(cfg.SigningKey, logger)).
		RequireSignature(cfg.RequireSignature)
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.StorageMemory:
		return memory.NewSnapshotRepository(), noop, nil
	case config.StoragePostgres:
		repo, err := postgres.Open(ctx, cfg.DBConn, cfg.SnapshotKey, codec, logger)
		if err != nil {
			return nil, noop, err
		}
		return repo, repo.Close, nil
	case config.StorageFile:
		repo, err := file.NewSnapshotRepository(cfg.DataFile, codec, logger)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// NewStore builds the rule engine and loads the store from repo.
func NewStore(ctx context.Context, cfg *config.Config, repo repository.SnapshotRepository, failures processor.FailureRecorder, logger *slog.Logger, opts ...store.Option) (*store.FinancialStore, error) {
	engine := processor.NewRuleEngine(cfg.Thresholds, failures, logger)
	opts = append(opts, store.WithReevaluateOnEveryMutation(cfg.ReevaluateOnEveryMutation))
	return store.New(ctx, repo, engine, logger, opts...)
}
