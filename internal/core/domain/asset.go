package domain

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	AssetSeed = "nft"

	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

type AssetMetadata struct {
	Name   string
	Symbol string
	URI    string
}

func (m AssetMetadata) Validate() error {
	if len(m.Name) == 0 || len(m.Name) > MaxNameLength {
		return fmt.Errorf("name must be 1 to %d bytes long", MaxNameLength)
	}
	if len(m.Symbol) == 0 || len(m.Symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol must be 1 to %d bytes long", MaxSymbolLength)
	}
	if len(m.URI) == 0 || len(m.URI) > MaxURILength {
		return fmt.Errorf("uri must be 1 to %d bytes long", MaxURILength)
	}
	if !utf8.ValidString(m.Name) || !utf8.ValidString(m.Symbol) || !utf8.ValidString(m.URI) {
		return fmt.Errorf("metadata must be valid utf8")
	}
	return nil
}

// RegistryEntry is what the metadata registry stores for an asset.
type RegistryEntry struct {
	AssetMetadata
	MintAuthority   common.PublicKey
	UpdateAuthority common.PublicKey
	IsMutable       bool
	CollectionSize  uint64
}

// Origin identifies the remote message an asset was minted for.
type Origin struct {
	ChainID uint64
	Address []byte
	Nonce   uint64
}

// AssetInstance is a non-fungible asset minted by the bridge.
type AssetInstance struct {
	Mint          common.PublicKey
	Metadata      AssetMetadata
	MintAuthority common.PublicKey
	Supply        uint64
	Owner         common.PublicKey
	Origin        Origin
}

// DeriveAssetAddress maps a remote origin to the mint address of its representative asset.
// The same origin always yields the same address.
func DeriveAssetAddress(programID common.PublicKey, origin Origin) (common.PublicKey, error) {
	chainID := make([]byte, 8)
	binary.LittleEndian.PutUint64(chainID, origin.ChainID)
	nonce := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonce, origin.Nonce)

	seeds := [][]byte{
		[]byte(AssetSeed), chainID, crypto.Keccak256(origin.Address), nonce,
	}
	address, _, err := common.FindProgramAddress(seeds, programID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("failed to derive asset address: %w", err)
	}
	return address, nil
}
