package domain

import (
	"context"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/google/uuid"
)

// PendingEmission is an outbound message that could not be handed to the gateway after the
// asset was already locked in custody.
type PendingEmission struct {
	ID        string
	Asset     common.PublicKey
	Sender    common.PublicKey
	Message   CrossChainMessage
	Reason    string
	CreatedAt time.Time
}

func NewPendingEmission(
	asset, sender common.PublicKey, msg CrossChainMessage, reason string,
) PendingEmission {
	return PendingEmission{
		ID:        uuid.New().String(),
		Asset:     asset,
		Sender:    sender,
		Message:   msg,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

type EmissionRepository interface {
	Add(ctx context.Context, emission PendingEmission) error
	List(ctx context.Context) ([]PendingEmission, error)
	Close()
}
