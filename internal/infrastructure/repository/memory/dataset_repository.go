// Package memory keeps the last saved dataset in process memory. It backs
// dry runs and tests, matching the file store's Save/Load contract.
package memory

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
)

type DatasetRepository struct {
	mu      sync.RWMutex
	dataset *matchdata.Dataset
	saves   int
}

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{}
}

func (r *DatasetRepository) Save(_ context.Context, dataset *matchdata.Dataset) error {
	if dataset == nil {
		return crerr.New("dataset is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *dataset
	r.dataset = &copied
	r.saves++
	return nil
}

func (r *DatasetRepository) Load(_ context.Context) (*matchdata.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.dataset == nil {
		return nil, crerr.New("no dataset stored")
	}

	copied := *r.dataset
	return &copied, nil
}

// Saves reports how many times Save succeeded. Test hook.
func (r *DatasetRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.saves
}
