package domain

import (
	"context"

	"github.com/blocto/solana-go-sdk/common"
)

type ConfigRepository interface {
	// Get returns nil without error if no config is stored at the given address.
	Get(ctx context.Context, address common.PublicKey) (*BridgeConfig, error)
	// Create must fail with ErrConfigExists if a config is already stored at the same address.
	Create(ctx context.Context, config BridgeConfig) error
	Close()
}
