package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/repository"

	_ "github.com/lib/pq"
)

// The blob is stored as TEXT, not JSONB: JSONB reorders keys, which would
// break the snapshot signature.
const schema = `
CREATE TABLE IF NOT EXISTS financial_snapshots (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SnapshotRepository keeps the snapshot as one row of a key-value table.
type SnapshotRepository struct {
	db     *sql.DB
	key    string
	codec  *repository.SnapshotCodec
	logger *slog.Logger
}

// Open connects with the lib/pq driver and makes sure the table exists.
func Open(ctx context.Context, dsn, key string, codec *repository.SnapshotCodec, logger *slog.Logger) (*SnapshotRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	repo := NewSnapshotRepository(db, key, codec, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func NewSnapshotRepository(db *sql.DB, key string, codec *repository.SnapshotCodec, logger *slog.Logger) *SnapshotRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if codec == nil {
		codec = repository.NewSnapshotCodec(nil)
	}
	return &SnapshotRepository{db: db, key: key, codec: codec, logger: logger}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context) (*domain.FinancialData, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM financial_snapshots WHERE key = $1`, r.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %s", repository.ErrNotFound, r.key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	data, version, err := r.codec.Decode([]byte(raw))
	if data == nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Snapshot partially restored from seed defaults",
			slog.String("key", r.key),
			slog.String("error", err.Error()))
		return data, nil
	}
	if version < repository.SnapshotVersion {
		if err := r.Save(ctx, data); err != nil {
			return nil, fmt.Errorf("failed to migrate snapshot: %w", err)
		}
	}
	return data, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, data *domain.FinancialData) error {
	raw, err := r.codec.Encode(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO financial_snapshots (key, data, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		r.key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}

var _ repository.SnapshotRepository = (*SnapshotRepository)(nil)
