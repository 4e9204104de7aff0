package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

const (
	insertReceiptQuery = `
INSERT INTO inbound_receipt (
	origin_key, origin_chain_id, origin_address, nonce, mint, recipient, message_id, processed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectReceiptQuery = `
SELECT origin_chain_id, origin_address, nonce, mint, recipient, message_id, processed_at
FROM inbound_receipt WHERE origin_key = ?`
)

type receiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(config ...interface{}) (domain.ReceiptRepository, error) {
	db, err := dbFromConfig("receipt", config...)
	if err != nil {
		return nil, err
	}
	return &receiptRepository{db}, nil
}

func (r *receiptRepository) Add(ctx context.Context, receipt domain.InboundReceipt) error {
	_, err := r.db.ExecContext(
		ctx, insertReceiptQuery,
		receipt.Key(), int64(receipt.Origin.ChainID), receipt.Origin.Address,
		int64(receipt.Origin.Nonce), receipt.Mint.ToBase58(), receipt.Recipient.ToBase58(),
		receipt.MessageID, receipt.ProcessedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrReceiptExists, receipt.Key())
	}
	if err != nil {
		return fmt.Errorf("failed to add receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) Get(
	ctx context.Context, origin domain.Origin,
) (*domain.InboundReceipt, error) {
	var (
		chainID, nonce, processedAt int64
		address                     []byte
		mint, recipient, messageID  string
	)
	err := r.db.QueryRowContext(ctx, selectReceiptQuery, origin.Key()).Scan(
		&chainID, &address, &nonce, &mint, &recipient, &messageID, &processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	mintKey, err := domain.ParsePublicKey(mint)
	if err != nil {
		return nil, err
	}
	recipientKey, err := domain.ParsePublicKey(recipient)
	if err != nil {
		return nil, err
	}
	return &domain.InboundReceipt{
		Origin: domain.Origin{
			ChainID: uint64(chainID),
			Address: address,
			Nonce:   uint64(nonce),
		},
		Mint:        mintKey,
		Recipient:   recipientKey,
		MessageID:   messageID,
		ProcessedAt: time.Unix(processedAt, 0),
	}, nil
}

func (r *receiptRepository) Close() {
	// nolint:all
	r.db.Close()
}
