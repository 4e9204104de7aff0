package ports

import (
	"context"
	"errors"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

var (
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrMintNotFound         = errors.New("mint not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAuthority     = errors.New("invalid authority")
	ErrMetadataExists       = errors.New("metadata already registered")
	ErrMetadataNotFound     = errors.New("metadata not found")
)

// Signer is a program derived identity. It carries the seeds that prove it was derived from
// the ledger's program id so that ledgers can honour it without any private key.
type Signer interface {
	PublicKey() common.PublicKey
	Seeds() [][]byte
}

// MintInfo describes a mint. A zero FreezeAuthority means holdings cannot be frozen.
type MintInfo struct {
	Address         common.PublicKey
	Authority       common.PublicKey
	FreezeAuthority common.PublicKey
	Supply          uint64
	Decimals        uint8
}

type TokenLedger interface {
	// CreateMint fails with ErrAccountAlreadyExists if the mint exists.
	CreateMint(
		ctx context.Context, asset common.PublicKey, authority Signer,
		freezeAuthority common.PublicKey, decimals uint8,
	) error
	Mint(
		ctx context.Context, asset, owner common.PublicKey, amount uint64, authority Signer,
	) error
	Transfer(ctx context.Context, asset, from, to common.PublicKey, amount uint64) error
	BalanceOf(ctx context.Context, asset, owner common.PublicKey) (uint64, error)
	GetMint(ctx context.Context, asset common.PublicKey) (*MintInfo, error)
}

type MetadataRegistry interface {
	// Register fails with ErrMetadataExists if the asset already has metadata.
	Register(
		ctx context.Context, asset common.PublicKey, data domain.RegistryEntry,
		mintAuthority, updateAuthority Signer,
	) error
	Get(ctx context.Context, asset common.PublicKey) (*domain.RegistryEntry, error)
}

type Ledger interface {
	Tokens() TokenLedger
	Metadata() MetadataRegistry
	// Atomic runs fn against a transactional view of the ledger. Nothing fn does is visible
	// unless it returns nil.
	Atomic(ctx context.Context, fn func(TokenLedger, MetadataRegistry) error) error
	Close()
}
