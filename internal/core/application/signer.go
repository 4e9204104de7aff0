package application

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

// bridgeSigner is the program derived identity that holds mint authority and custody.
// It can only be obtained by re-deriving it from a stored config.
type bridgeSigner struct {
	address common.PublicKey
	seeds   [][]byte
}

func newBridgeSigner(cfg domain.BridgeConfig) (*bridgeSigner, error) {
	seeds := cfg.SignerSeeds()
	address, err := common.CreateProgramAddress(seeds, cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bridge signer: %w", err)
	}
	if address != cfg.Address {
		return nil, fmt.Errorf(
			"derived signer %s does not match config address %s",
			address.ToBase58(), cfg.Address.ToBase58(),
		)
	}
	return &bridgeSigner{address, seeds}, nil
}

func (s *bridgeSigner) PublicKey() common.PublicKey {
	return s.address
}

func (s *bridgeSigner) Seeds() [][]byte {
	return s.seeds
}

// custodyAccount is the token account of the signer for the given asset.
func (s *bridgeSigner) custodyAccount(asset common.PublicKey) (common.PublicKey, error) {
	account, _, err := common.FindAssociatedTokenAddress(s.address, asset)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("failed to derive custody account: %w", err)
	}
	return account, nil
}
