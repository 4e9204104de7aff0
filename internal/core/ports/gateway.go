package ports

import (
	"context"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

type GatewayTransport interface {
	Send(ctx context.Context, msg domain.CrossChainMessage) error
	Close()
}

type MessageCodec interface {
	EncodeMessage(msg domain.CrossChainMessage) ([]byte, error)
	DecodeMessage(buf []byte) (*domain.CrossChainMessage, error)
	EncodeOutbound(payload domain.OutboundPayload) ([]byte, error)
	DecodeInbound(buf []byte) (*domain.InboundPayload, error)
}
