package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

const (
	insertConfigQuery = `
INSERT INTO bridge_config (
	address, program_id, authority, gateway_address, signing_seed, bump, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectConfigQuery = `
SELECT address, program_id, authority, gateway_address, signing_seed, bump, created_at
FROM bridge_config WHERE address = ?`
)

type configRepository struct {
	db *sql.DB
}

func NewConfigRepository(config ...interface{}) (domain.ConfigRepository, error) {
	db, err := dbFromConfig("config", config...)
	if err != nil {
		return nil, err
	}
	return &configRepository{db}, nil
}

func (r *configRepository) Get(
	ctx context.Context, address common.PublicKey,
) (*domain.BridgeConfig, error) {
	var (
		addr, programID, authority, gateway string
		seed                                []byte
		bump                                int64
		createdAt                           int64
	)
	err := r.db.QueryRowContext(ctx, selectConfigQuery, address.ToBase58()).Scan(
		&addr, &programID, &authority, &gateway, &seed, &bump, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	cfg := &domain.BridgeConfig{
		SigningSeed: seed,
		Bump:        uint8(bump),
		CreatedAt:   time.Unix(createdAt, 0),
	}
	for _, k := range []struct {
		dst *common.PublicKey
		src string
	}{
		{&cfg.Address, addr},
		{&cfg.ProgramID, programID},
		{&cfg.Authority, authority},
		{&cfg.GatewayAddress, gateway},
	} {
		if *k.dst, err = domain.ParsePublicKey(k.src); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

func (r *configRepository) Create(ctx context.Context, cfg domain.BridgeConfig) error {
	_, err := r.db.ExecContext(
		ctx, insertConfigQuery,
		cfg.Address.ToBase58(), cfg.ProgramID.ToBase58(), cfg.Authority.ToBase58(),
		cfg.GatewayAddress.ToBase58(), cfg.SigningSeed, int64(cfg.Bump), cfg.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return domain.ErrConfigExists
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

func (r *configRepository) Close() {
	// nolint:all
	r.db.Close()
}
