package domain

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CrossChainMessage is the envelope exchanged with the gateway.
type CrossChainMessage struct {
	OriginChainID      uint64
	OriginAddress      []byte
	DestinationChainID uint64
	DestinationAddress []byte
	Nonce              uint64
	Payload            []byte
}

func (m CrossChainMessage) Origin() Origin {
	return Origin{
		ChainID: m.OriginChainID,
		Address: m.OriginAddress,
		Nonce:   m.Nonce,
	}
}

// ID is the keccak256 digest of the envelope fields.
func (m CrossChainMessage) ID() string {
	buf := make([]byte, 0, 24+len(m.OriginAddress)+len(m.DestinationAddress)+len(m.Payload))
	buf = binary.BigEndian.AppendUint64(buf, m.OriginChainID)
	buf = append(buf, m.OriginAddress...)
	buf = binary.BigEndian.AppendUint64(buf, m.DestinationChainID)
	buf = append(buf, m.DestinationAddress...)
	buf = binary.BigEndian.AppendUint64(buf, m.Nonce)
	buf = append(buf, m.Payload...)
	return hex.EncodeToString(crypto.Keccak256(buf))
}

// InboundPayload is the decoded payload of a message delivered by the gateway.
type InboundPayload struct {
	Recipient common.PublicKey
	AssetMetadata
}

// OutboundPayload is the payload of a message emitted for a locked asset.
type OutboundPayload struct {
	Asset  common.PublicKey
	Sender common.PublicKey
	AssetMetadata
}
