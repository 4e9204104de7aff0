package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const receiptStoreDir = "receipts"

type receiptRepository struct {
	store *badgerhold.Store
}

func NewReceiptRepository(config ...interface{}) (domain.ReceiptRepository, error) {
	store, err := openStore(receiptStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt store: %s", err)
	}
	return &receiptRepository{store}, nil
}

func (r *receiptRepository) Add(_ context.Context, receipt domain.InboundReceipt) error {
	err := withRetry(func() error {
		return r.store.Insert(receipt.Key(), &receipt)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("%w: %s", domain.ErrReceiptExists, receipt.Key())
	}
	return err
}

func (r *receiptRepository) Get(
	_ context.Context, origin domain.Origin,
) (*domain.InboundReceipt, error) {
	var receipt domain.InboundReceipt
	err := r.store.Get(origin.Key(), &receipt)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (r *receiptRepository) Close() {
	// nolint:all
	r.store.Close()
}
