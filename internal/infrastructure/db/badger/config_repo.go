package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const configStoreDir = "config"

type configRepository struct {
	store *badgerhold.Store
}

func NewConfigRepository(config ...interface{}) (domain.ConfigRepository, error) {
	store, err := openStore(configStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open config store: %s", err)
	}
	return &configRepository{store}, nil
}

func (r *configRepository) Get(
	_ context.Context, address common.PublicKey,
) (*domain.BridgeConfig, error) {
	var cfg domain.BridgeConfig
	err := r.store.Get(address.ToBase58(), &cfg)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return &cfg, nil
}

func (r *configRepository) Create(_ context.Context, cfg domain.BridgeConfig) error {
	err := withRetry(func() error {
		return r.store.Insert(cfg.Address.ToBase58(), &cfg)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrConfigExists
	}
	return err
}

func (r *configRepository) Close() {
	// nolint:all
	r.store.Close()
}
