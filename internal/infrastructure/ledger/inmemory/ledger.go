package inmemoryledger

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	"github.com/sanchit-4/universal-nft/internal/infrastructure/ledger"
)

type balanceKey struct {
	asset common.PublicKey
	owner common.PublicKey
}

type state struct {
	mints    map[common.PublicKey]ports.MintInfo
	balances map[balanceKey]uint64
	metadata map[common.PublicKey]domain.RegistryEntry
}

func (s *state) clone() *state {
	return &state{
		mints:    maps.Clone(s.mints),
		balances: maps.Clone(s.balances),
		metadata: maps.Clone(s.metadata),
	}
}

type inmemoryLedger struct {
	programID common.PublicKey
	lock      *sync.Mutex
	state     *state
}

func NewLedger(programID common.PublicKey) ports.Ledger {
	return &inmemoryLedger{
		programID: programID,
		lock:      &sync.Mutex{},
		state: &state{
			mints:    make(map[common.PublicKey]ports.MintInfo),
			balances: make(map[balanceKey]uint64),
			metadata: make(map[common.PublicKey]domain.RegistryEntry),
		},
	}
}

func (l *inmemoryLedger) Tokens() ports.TokenLedger {
	return &lockedView{l}
}

func (l *inmemoryLedger) Metadata() ports.MetadataRegistry {
	return &lockedView{l}
}

// Atomic holds the ledger lock for the whole duration of fn, which must only use the views it
// is given.
func (l *inmemoryLedger) Atomic(
	ctx context.Context, fn func(ports.TokenLedger, ports.MetadataRegistry) error,
) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	staged := l.state.clone()
	v := &view{l.programID, staged}
	if err := fn(v, v); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.state = staged
	return nil
}

func (l *inmemoryLedger) Close() {}

type lockedView struct {
	l *inmemoryLedger
}

func (v *lockedView) with(fn func(*view) error) error {
	v.l.lock.Lock()
	defer v.l.lock.Unlock()
	return fn(&view{v.l.programID, v.l.state})
}

func (v *lockedView) CreateMint(
	ctx context.Context, asset common.PublicKey, authority ports.Signer,
	freezeAuthority common.PublicKey, decimals uint8,
) error {
	return v.with(func(vv *view) error {
		return vv.CreateMint(ctx, asset, authority, freezeAuthority, decimals)
	})
}

func (v *lockedView) Mint(
	ctx context.Context, asset, owner common.PublicKey, amount uint64, authority ports.Signer,
) error {
	return v.with(func(vv *view) error { return vv.Mint(ctx, asset, owner, amount, authority) })
}

func (v *lockedView) Transfer(
	ctx context.Context, asset, from, to common.PublicKey, amount uint64,
) error {
	return v.with(func(vv *view) error { return vv.Transfer(ctx, asset, from, to, amount) })
}

func (v *lockedView) BalanceOf(
	ctx context.Context, asset, owner common.PublicKey,
) (balance uint64, err error) {
	err = v.with(func(vv *view) error {
		balance, err = vv.BalanceOf(ctx, asset, owner)
		return err
	})
	return
}

func (v *lockedView) GetMint(
	ctx context.Context, asset common.PublicKey,
) (info *ports.MintInfo, err error) {
	err = v.with(func(vv *view) error {
		info, err = vv.GetMint(ctx, asset)
		return err
	})
	return
}

func (v *lockedView) Register(
	ctx context.Context, asset common.PublicKey, data domain.RegistryEntry,
	mintAuthority, updateAuthority ports.Signer,
) error {
	return v.with(func(vv *view) error {
		return vv.Register(ctx, asset, data, mintAuthority, updateAuthority)
	})
}

func (v *lockedView) Get(
	ctx context.Context, asset common.PublicKey,
) (entry *domain.RegistryEntry, err error) {
	err = v.with(func(vv *view) error {
		entry, err = vv.Get(ctx, asset)
		return err
	})
	return
}

// view operates on a state without locking.
type view struct {
	programID common.PublicKey
	state     *state
}

func (v *view) CreateMint(
	_ context.Context, asset common.PublicKey, authority ports.Signer,
	freezeAuthority common.PublicKey, decimals uint8,
) error {
	if err := ledger.VerifySigner(v.programID, authority); err != nil {
		return err
	}
	if _, ok := v.state.mints[asset]; ok {
		return fmt.Errorf("%w: mint %s", ports.ErrAccountAlreadyExists, asset.ToBase58())
	}
	v.state.mints[asset] = ports.MintInfo{
		Address:         asset,
		Authority:       authority.PublicKey(),
		FreezeAuthority: freezeAuthority,
		Decimals:        decimals,
	}
	return nil
}

func (v *view) Mint(
	_ context.Context, asset, owner common.PublicKey, amount uint64, authority ports.Signer,
) error {
	if err := ledger.VerifySigner(v.programID, authority); err != nil {
		return err
	}
	mint, ok := v.state.mints[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ports.ErrMintNotFound, asset.ToBase58())
	}
	if mint.Authority != authority.PublicKey() {
		return fmt.Errorf(
			"%w: %s is not the mint authority of %s",
			ports.ErrInvalidAuthority, authority.PublicKey().ToBase58(), asset.ToBase58(),
		)
	}
	mint.Supply += amount
	v.state.mints[asset] = mint
	v.state.balances[balanceKey{asset, owner}] += amount
	return nil
}

func (v *view) Transfer(
	_ context.Context, asset, from, to common.PublicKey, amount uint64,
) error {
	if _, ok := v.state.mints[asset]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrMintNotFound, asset.ToBase58())
	}
	fromKey := balanceKey{asset, from}
	if v.state.balances[fromKey] < amount {
		return fmt.Errorf(
			"%w: %s holds %d of %s", ports.ErrInsufficientFunds,
			from.ToBase58(), v.state.balances[fromKey], asset.ToBase58(),
		)
	}
	v.state.balances[fromKey] -= amount
	if v.state.balances[fromKey] == 0 {
		delete(v.state.balances, fromKey)
	}
	v.state.balances[balanceKey{asset, to}] += amount
	return nil
}

func (v *view) BalanceOf(_ context.Context, asset, owner common.PublicKey) (uint64, error) {
	return v.state.balances[balanceKey{asset, owner}], nil
}

func (v *view) GetMint(_ context.Context, asset common.PublicKey) (*ports.MintInfo, error) {
	mint, ok := v.state.mints[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrMintNotFound, asset.ToBase58())
	}
	return &mint, nil
}

func (v *view) Register(
	_ context.Context, asset common.PublicKey, data domain.RegistryEntry,
	mintAuthority, updateAuthority ports.Signer,
) error {
	if err := ledger.VerifySigner(v.programID, mintAuthority); err != nil {
		return err
	}
	if err := ledger.VerifySigner(v.programID, updateAuthority); err != nil {
		return err
	}
	mint, ok := v.state.mints[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ports.ErrMintNotFound, asset.ToBase58())
	}
	if mint.Authority != mintAuthority.PublicKey() {
		return fmt.Errorf("%w: mint authority mismatch", ports.ErrInvalidAuthority)
	}
	if _, ok := v.state.metadata[asset]; ok {
		return fmt.Errorf("%w: %s", ports.ErrMetadataExists, asset.ToBase58())
	}
	data.MintAuthority = mintAuthority.PublicKey()
	data.UpdateAuthority = updateAuthority.PublicKey()
	v.state.metadata[asset] = data
	return nil
}

func (v *view) Get(_ context.Context, asset common.PublicKey) (*domain.RegistryEntry, error) {
	entry, ok := v.state.metadata[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrMetadataNotFound, asset.ToBase58())
	}
	return &entry, nil
}
