package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/repository"
)

// SnapshotRepository persists the snapshot as a single JSON file. Saves go
// through a temp file and a rename so the file is never half written.
type SnapshotRepository struct {
	mu       sync.Mutex
	filePath string
	codec    *repository.SnapshotCodec
	logger   *slog.Logger
}

func NewSnapshotRepository(path string, codec *repository.SnapshotCodec, logger *slog.Logger) (*SnapshotRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if codec == nil {
		codec = repository.NewSnapshotCodec(nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &SnapshotRepository{
		filePath: path,
		codec:    codec,
		logger:   logger,
	}, nil
}

func (r *SnapshotRepository) Load(ctx context.Context) (*domain.FinancialData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, r.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", repository.ErrNotFound, r.filePath)
	}

	data, version, err := r.codec.Decode(raw)
	if data == nil {
		return nil, fmt.Errorf("decode data file: %w", err)
	}
	if err != nil {
		backup := r.filePath + ".corrupt"
		r.logger.WarnContext(ctx, "Snapshot partially restored from seed defaults",
			slog.String("path", r.filePath),
			slog.String("backup", backup),
			slog.String("error", err.Error()))
		if werr := os.WriteFile(backup, raw, 0o600); werr != nil {
			r.logger.ErrorContext(ctx, "Failed to back up corrupt snapshot",
				slog.String("backup", backup),
				slog.String("error", werr.Error()))
		}
		return data, nil
	}

	if version < repository.SnapshotVersion {
		r.logger.InfoContext(ctx, "Migrating snapshot file",
			slog.String("path", r.filePath),
			slog.Int("from_version", version),
			slog.Int("to_version", repository.SnapshotVersion))
		if err := r.persistLocked(data); err != nil {
			return nil, fmt.Errorf("migrate data file: %w", err)
		}
	}

	return data, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, data *domain.FinancialData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.persistLocked(data)
}

func (r *SnapshotRepository) persistLocked(data *domain.FinancialData) error {
	raw, err := r.codec.Encode(data)
	if err != nil {
		return err
	}
	tmpPath := r.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, r.filePath); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

var _ repository.SnapshotRepository = (*SnapshotRepository)(nil)
