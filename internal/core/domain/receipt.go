package domain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
)

var ErrReceiptExists = errors.New("inbound receipt already exists")

// InboundReceipt records that the message with the given origin has been processed.
type InboundReceipt struct {
	Origin      Origin
	Mint        common.PublicKey
	Recipient   common.PublicKey
	MessageID   string
	ProcessedAt time.Time
}

func (r InboundReceipt) Key() string {
	return r.Origin.Key()
}

// Key is the replay protection key of an origin.
func (o Origin) Key() string {
	return fmt.Sprintf("%d:%s:%d", o.ChainID, hex.EncodeToString(o.Address), o.Nonce)
}

type ReceiptRepository interface {
	// Add must fail with ErrReceiptExists if a receipt with the same origin key exists.
	Add(ctx context.Context, receipt InboundReceipt) error
	// Get returns nil without error if the origin was never processed.
	Get(ctx context.Context, origin Origin) (*InboundReceipt, error)
	Close()
}
