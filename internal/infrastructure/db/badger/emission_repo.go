package badgerdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const emissionStoreDir = "emissions"

type emissionRepository struct {
	store *badgerhold.Store
}

func NewEmissionRepository(config ...interface{}) (domain.EmissionRepository, error) {
	store, err := openStore(emissionStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open emission store: %s", err)
	}
	return &emissionRepository{store}, nil
}

func (r *emissionRepository) Add(_ context.Context, emission domain.PendingEmission) error {
	return withRetry(func() error {
		return r.store.Insert(emission.ID, &emission)
	})
}

func (r *emissionRepository) List(_ context.Context) ([]domain.PendingEmission, error) {
	emissions := make([]domain.PendingEmission, 0)
	if err := r.store.Find(&emissions, nil); err != nil {
		return nil, fmt.Errorf("failed to list pending emissions: %w", err)
	}
	sort.SliceStable(emissions, func(i, j int) bool {
		return emissions[i].CreatedAt.Before(emissions[j].CreatedAt)
	})
	return emissions, nil
}

func (r *emissionRepository) Close() {
	// nolint:all
	r.store.Close()
}
