package badgerledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/dgraph-io/badger/v4"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	"github.com/sanchit-4/universal-nft/internal/infrastructure/ledger"
	"github.com/timshannon/badgerhold/v4"
)

const (
	ledgerStoreDir = "ledger"
	maxRetries     = 5
)

type mintRecord struct {
	Authority       common.PublicKey
	FreezeAuthority common.PublicKey
	Supply          uint64
	Decimals        uint8
}

type balanceRecord struct {
	Amount uint64
}

type metadataRecord struct {
	Name            string
	Symbol          string
	URI             string
	MintAuthority   common.PublicKey
	UpdateAuthority common.PublicKey
	IsMutable       bool
	CollectionSize  uint64
}

type badgerLedger struct {
	programID common.PublicKey
	store     *badgerhold.Store
}

// NewLedger opens a badger backed ledger in baseDir. An empty baseDir keeps everything in
// memory.
func NewLedger(
	programID common.PublicKey, baseDir string, logger badger.Logger,
) (ports.Ledger, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, ledgerStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %s", err)
	}
	return &badgerLedger{programID, store}, nil
}

func (l *badgerLedger) Tokens() ports.TokenLedger {
	return &autoTxView{l}
}

func (l *badgerLedger) Metadata() ports.MetadataRegistry {
	return &autoTxView{l}
}

func (l *badgerLedger) Atomic(
	ctx context.Context, fn func(ports.TokenLedger, ports.MetadataRegistry) error,
) error {
	return l.update(ctx, func(v *txView) error {
		return fn(v, v)
	})
}

func (l *badgerLedger) Close() {
	// nolint:all
	l.store.Close()
}

// update runs fn in a read-write transaction, retrying on conflicts with concurrent writers.
func (l *badgerLedger) update(ctx context.Context, fn func(*txView) error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = l.store.Badger().Update(func(txn *badger.Txn) error {
			return fn(&txView{l.programID, l.store, txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return err
}

func (l *badgerLedger) view(fn func(*txView) error) error {
	return l.store.Badger().View(func(txn *badger.Txn) error {
		return fn(&txView{l.programID, l.store, txn})
	})
}

// autoTxView runs every call in its own transaction.
type autoTxView struct {
	l *badgerLedger
}

func (v *autoTxView) CreateMint(
	ctx context.Context, asset common.PublicKey, authority ports.Signer,
	freezeAuthority common.PublicKey, decimals uint8,
) error {
	return v.l.update(ctx, func(tx *txView) error {
		return tx.CreateMint(ctx, asset, authority, freezeAuthority, decimals)
	})
}

func (v *autoTxView) Mint(
	ctx context.Context, asset, owner common.PublicKey, amount uint64, authority ports.Signer,
) error {
	return v.l.update(ctx, func(tx *txView) error {
		return tx.Mint(ctx, asset, owner, amount, authority)
	})
}

func (v *autoTxView) Transfer(
	ctx context.Context, asset, from, to common.PublicKey, amount uint64,
) error {
	return v.l.update(ctx, func(tx *txView) error {
		return tx.Transfer(ctx, asset, from, to, amount)
	})
}

func (v *autoTxView) BalanceOf(
	ctx context.Context, asset, owner common.PublicKey,
) (balance uint64, err error) {
	err = v.l.view(func(tx *txView) error {
		balance, err = tx.BalanceOf(ctx, asset, owner)
		return err
	})
	return
}

func (v *autoTxView) GetMint(
	ctx context.Context, asset common.PublicKey,
) (info *ports.MintInfo, err error) {
	err = v.l.view(func(tx *txView) error {
		info, err = tx.GetMint(ctx, asset)
		return err
	})
	return
}

func (v *autoTxView) Register(
	ctx context.Context, asset common.PublicKey, data domain.RegistryEntry,
	mintAuthority, updateAuthority ports.Signer,
) error {
	return v.l.update(ctx, func(tx *txView) error {
		return tx.Register(ctx, asset, data, mintAuthority, updateAuthority)
	})
}

func (v *autoTxView) Get(
	ctx context.Context, asset common.PublicKey,
) (entry *domain.RegistryEntry, err error) {
	err = v.l.view(func(tx *txView) error {
		entry, err = tx.Get(ctx, asset)
		return err
	})
	return
}

// txView operates inside a given badger transaction.
type txView struct {
	programID common.PublicKey
	store     *badgerhold.Store
	txn       *badger.Txn
}

func (v *txView) CreateMint(
	_ context.Context, asset common.PublicKey, authority ports.Signer,
	freezeAuthority common.PublicKey, decimals uint8,
) error {
	if err := ledger.VerifySigner(v.programID, authority); err != nil {
		return err
	}
	err := v.store.TxInsert(v.txn, mintKey(asset), &mintRecord{
		Authority:       authority.PublicKey(),
		FreezeAuthority: freezeAuthority,
		Decimals:        decimals,
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("%w: mint %s", ports.ErrAccountAlreadyExists, asset.ToBase58())
	}
	return err
}

func (v *txView) Mint(
	_ context.Context, asset, owner common.PublicKey, amount uint64, authority ports.Signer,
) error {
	if err := ledger.VerifySigner(v.programID, authority); err != nil {
		return err
	}
	mint, err := v.getMint(asset)
	if err != nil {
		return err
	}
	if mint.Authority != authority.PublicKey() {
		return fmt.Errorf(
			"%w: %s is not the mint authority of %s",
			ports.ErrInvalidAuthority, authority.PublicKey().ToBase58(), asset.ToBase58(),
		)
	}
	balance, err := v.getBalance(asset, owner)
	if err != nil {
		return err
	}

	mint.Supply += amount
	if err := v.store.TxUpdate(v.txn, mintKey(asset), mint); err != nil {
		return err
	}
	return v.store.TxUpsert(
		v.txn, balanceKey(asset, owner), &balanceRecord{balance + amount},
	)
}

func (v *txView) Transfer(
	_ context.Context, asset, from, to common.PublicKey, amount uint64,
) error {
	if _, err := v.getMint(asset); err != nil {
		return err
	}
	fromBalance, err := v.getBalance(asset, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf(
			"%w: %s holds %d of %s", ports.ErrInsufficientFunds,
			from.ToBase58(), fromBalance, asset.ToBase58(),
		)
	}
	if err := v.store.TxUpsert(
		v.txn, balanceKey(asset, from), &balanceRecord{fromBalance - amount},
	); err != nil {
		return err
	}
	toBalance, err := v.getBalance(asset, to)
	if err != nil {
		return err
	}
	return v.store.TxUpsert(
		v.txn, balanceKey(asset, to), &balanceRecord{toBalance + amount},
	)
}

func (v *txView) BalanceOf(_ context.Context, asset, owner common.PublicKey) (uint64, error) {
	return v.getBalance(asset, owner)
}

func (v *txView) GetMint(_ context.Context, asset common.PublicKey) (*ports.MintInfo, error) {
	mint, err := v.getMint(asset)
	if err != nil {
		return nil, err
	}
	return &ports.MintInfo{
		Address:         asset,
		Authority:       mint.Authority,
		FreezeAuthority: mint.FreezeAuthority,
		Supply:          mint.Supply,
		Decimals:        mint.Decimals,
	}, nil
}

func (v *txView) Register(
	_ context.Context, asset common.PublicKey, data domain.RegistryEntry,
	mintAuthority, updateAuthority ports.Signer,
) error {
	if err := ledger.VerifySigner(v.programID, mintAuthority); err != nil {
		return err
	}
	if err := ledger.VerifySigner(v.programID, updateAuthority); err != nil {
		return err
	}
	mint, err := v.getMint(asset)
	if err != nil {
		return err
	}
	if mint.Authority != mintAuthority.PublicKey() {
		return fmt.Errorf("%w: mint authority mismatch", ports.ErrInvalidAuthority)
	}

	err = v.store.TxInsert(v.txn, metadataKey(asset), &metadataRecord{
		Name:            data.Name,
		Symbol:          data.Symbol,
		URI:             data.URI,
		MintAuthority:   mintAuthority.PublicKey(),
		UpdateAuthority: updateAuthority.PublicKey(),
		IsMutable:       data.IsMutable,
		CollectionSize:  data.CollectionSize,
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("%w: %s", ports.ErrMetadataExists, asset.ToBase58())
	}
	return err
}

func (v *txView) Get(_ context.Context, asset common.PublicKey) (*domain.RegistryEntry, error) {
	var record metadataRecord
	err := v.store.TxGet(v.txn, metadataKey(asset), &record)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ports.ErrMetadataNotFound, asset.ToBase58())
	}
	if err != nil {
		return nil, err
	}
	return &domain.RegistryEntry{
		AssetMetadata: domain.AssetMetadata{
			Name:   record.Name,
			Symbol: record.Symbol,
			URI:    record.URI,
		},
		MintAuthority:   record.MintAuthority,
		UpdateAuthority: record.UpdateAuthority,
		IsMutable:       record.IsMutable,
		CollectionSize:  record.CollectionSize,
	}, nil
}

func (v *txView) getMint(asset common.PublicKey) (*mintRecord, error) {
	var mint mintRecord
	err := v.store.TxGet(v.txn, mintKey(asset), &mint)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ports.ErrMintNotFound, asset.ToBase58())
	}
	if err != nil {
		return nil, err
	}
	return &mint, nil
}

func (v *txView) getBalance(asset, owner common.PublicKey) (uint64, error) {
	var balance balanceRecord
	err := v.store.TxGet(v.txn, balanceKey(asset, owner), &balance)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}

func mintKey(asset common.PublicKey) string {
	return "mint:" + asset.ToBase58()
}

func balanceKey(asset, owner common.PublicKey) string {
	return "balance:" + asset.ToBase58() + ":" + owner.ToBase58()
}

func metadataKey(asset common.PublicKey) string {
	return "metadata:" + asset.ToBase58()
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
