package repository

import (
	"context"
	"errors"
	"wealth_manager/internal/domain"
)

// SnapshotRepository is the durable home of the financial snapshot. Load is
// called once at startup; Save replaces prior content wholesale.
type SnapshotRepository interface {
	Load(ctx context.Context) (*domain.FinancialData, error)
	Save(ctx context.Context, data *domain.FinancialData) error
}

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSignature = errors.New("snapshot signature mismatch")
	ErrUnsupported      = errors.New("unsupported snapshot version")
)
