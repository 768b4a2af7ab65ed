package memory

import (
	"wealth_manager/internal/repository"
)

var (
	_ repository.SnapshotRepository = (*SnapshotRepository)(nil)
)
