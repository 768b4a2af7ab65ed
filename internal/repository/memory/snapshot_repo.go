package memory

import (
	"context"
	"fmt"
	"sync"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/repository"
)

// SnapshotRepository keeps the snapshot in process memory. It stores and
// hands out copies, never the caller's value.
type SnapshotRepository struct {
	mu        sync.RWMutex
	data      *domain.FinancialData
	saveCount int
	saveErr   error
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

// NewSnapshotRepositoryWith starts from an already persisted snapshot.
func NewSnapshotRepositoryWith(data *domain.FinancialData) *SnapshotRepository {
	return &SnapshotRepository{data: data.Clone()}
}

func (r *SnapshotRepository) Load(ctx context.Context) (*domain.FinancialData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.data == nil {
		return nil, fmt.Errorf("%w: snapshot", repository.ErrNotFound)
	}
	return r.data.Clone(), nil
}

func (r *SnapshotRepository) Save(ctx context.Context, data *domain.FinancialData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}

	r.data = data.Clone()
	r.saveCount++

	return nil
}

// FailSaves makes every following Save return err; nil restores saving.
func (r *SnapshotRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *SnapshotRepository) SaveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saveCount
}
