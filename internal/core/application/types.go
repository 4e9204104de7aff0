package application

import (
	"context"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

type Service interface {
	Initialize(
		ctx context.Context, caller, gateway common.PublicKey,
	) (*domain.BridgeConfig, error)
	OnInboundMessage(
		ctx context.Context, caller common.PublicKey, msg domain.CrossChainMessage,
	) (*domain.AssetInstance, error)
	// DeliverInbound decodes a raw message envelope and processes it like OnInboundMessage.
	DeliverInbound(
		ctx context.Context, caller common.PublicKey, rawMessage []byte,
	) (*domain.AssetInstance, error)
	SendOutbound(ctx context.Context, req OutboundRequest) (*domain.CrossChainMessage, error)
	GetConfig(ctx context.Context) (*domain.BridgeConfig, error)
	GetAsset(ctx context.Context, asset common.PublicKey) (*AssetInfo, error)
	BalanceOf(ctx context.Context, asset, owner common.PublicKey) (uint64, error)
	ListPendingEmissions(ctx context.Context) ([]domain.PendingEmission, error)
	Close()
}

type OutboundRequest struct {
	Caller             common.PublicKey
	Asset              common.PublicKey
	DestinationChainID uint64
	DestinationAddress []byte
	Gateway            common.PublicKey
}

type AssetInfo struct {
	Mint            common.PublicKey
	Metadata        *domain.RegistryEntry
	MintAuthority   common.PublicKey
	FreezeAuthority common.PublicKey
	Supply          uint64
	Locked          bool
	CustodyAccount  common.PublicKey
}
