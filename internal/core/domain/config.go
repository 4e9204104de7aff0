package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
)

// ConfigSeed is the seed the config record address and the bridge signer are derived from.
const ConfigSeed = "config"

var ErrConfigExists = errors.New("bridge config already exists")

// BridgeConfig is the singleton record of a bridge deployment. The address it is stored under
// is derived from the program id and is also the identity that signs mints and holds custody.
type BridgeConfig struct {
	Address        common.PublicKey
	ProgramID      common.PublicKey
	Authority      common.PublicKey
	GatewayAddress common.PublicKey
	SigningSeed    []byte
	Bump           uint8
	CreatedAt      time.Time
}

func NewBridgeConfig(
	programID, authority, gateway common.PublicKey,
) (*BridgeConfig, error) {
	if authority == (common.PublicKey{}) {
		return nil, fmt.Errorf("missing authority")
	}
	if gateway == (common.PublicKey{}) {
		return nil, fmt.Errorf("missing gateway address")
	}

	seed := []byte(ConfigSeed)
	address, bump, err := common.FindProgramAddress([][]byte{seed}, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive config address: %w", err)
	}

	return &BridgeConfig{
		Address:        address,
		ProgramID:      programID,
		Authority:      authority,
		GatewayAddress: gateway,
		SigningSeed:    seed,
		Bump:           bump,
		CreatedAt:      time.Now(),
	}, nil
}

// SignerSeeds returns the full seed list, bump included, that re-derives the signer.
func (c BridgeConfig) SignerSeeds() [][]byte {
	return [][]byte{c.SigningSeed, {c.Bump}}
}

func (c BridgeConfig) IsTrustedGateway(caller common.PublicKey) bool {
	return c.GatewayAddress == caller
}
