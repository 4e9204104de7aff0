package pgdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

const (
	insertEmissionQuery = `
INSERT INTO pending_emission (
	id, asset, sender, origin_chain_id, origin_address, destination_chain_id,
	destination_address, nonce, payload, reason, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	selectEmissionsQuery = `
SELECT id, asset, sender, origin_chain_id, origin_address, destination_chain_id,
	destination_address, nonce, payload, reason, created_at
FROM pending_emission ORDER BY created_at ASC, id ASC`
)

type emissionRepository struct {
	db *sql.DB
}

func NewEmissionRepository(config ...interface{}) (domain.EmissionRepository, error) {
	db, err := dbFromConfig("emission", config...)
	if err != nil {
		return nil, err
	}
	return &emissionRepository{db}, nil
}

func (r *emissionRepository) Add(ctx context.Context, emission domain.PendingEmission) error {
	msg := emission.Message
	if _, err := r.db.ExecContext(
		ctx, insertEmissionQuery,
		emission.ID, emission.Asset.ToBase58(), emission.Sender.ToBase58(),
		int64(msg.OriginChainID), msg.OriginAddress, int64(msg.DestinationChainID),
		msg.DestinationAddress, int64(msg.Nonce), msg.Payload, emission.Reason,
		emission.CreatedAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to add pending emission: %w", err)
	}
	return nil
}

func (r *emissionRepository) List(ctx context.Context) ([]domain.PendingEmission, error) {
	rows, err := r.db.QueryContext(ctx, selectEmissionsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emissions: %w", err)
	}
	// nolint
	defer rows.Close()

	emissions := make([]domain.PendingEmission, 0)
	for rows.Next() {
		var (
			id, asset, sender, reason                  string
			originChainID, destChainID, nonce, created int64
			originAddress, destAddress, payload        []byte
		)
		if err := rows.Scan(
			&id, &asset, &sender, &originChainID, &originAddress, &destChainID,
			&destAddress, &nonce, &payload, &reason, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending emission: %w", err)
		}
		assetKey, err := domain.ParsePublicKey(asset)
		if err != nil {
			return nil, err
		}
		senderKey, err := domain.ParsePublicKey(sender)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, domain.PendingEmission{
			ID:     id,
			Asset:  assetKey,
			Sender: senderKey,
			Message: domain.CrossChainMessage{
				OriginChainID:      uint64(originChainID),
				OriginAddress:      originAddress,
				DestinationChainID: uint64(destChainID),
				DestinationAddress: destAddress,
				Nonce:              uint64(nonce),
				Payload:            payload,
			},
			Reason:    reason,
			CreatedAt: time.Unix(created, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending emissions: %w", err)
	}
	return emissions, nil
}

func (r *emissionRepository) Close() {
	// nolint:all
	r.db.Close()
}
