package domain

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// ParsePublicKey strictly decodes a base58 encoded 32 byte key.
func ParsePublicKey(key string) (common.PublicKey, error) {
	buf, err := base58.Decode(key)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("invalid key %q: %w", key, err)
	}
	if len(buf) != len(common.PublicKey{}) {
		return common.PublicKey{}, fmt.Errorf(
			"invalid key %q: expected 32 bytes, got %d", key, len(buf),
		)
	}
	return common.PublicKeyFromBytes(buf), nil
}
