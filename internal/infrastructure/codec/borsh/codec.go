package borshcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
)

type message struct {
	OriginChainID      uint64
	OriginAddress      []byte
	DestinationChainID uint64
	DestinationAddress []byte
	Nonce              uint64
	Payload            []byte
}

type inboundPayload struct {
	Recipient [32]byte
	Name      string
	Symbol    string
	URI       string
}

type outboundPayload struct {
	Asset  [32]byte
	Sender [32]byte
	Name   string
	Symbol string
	URI    string
}

type codec struct{}

// NewCodec returns the borsh codec, the native encoding of Solana programs.
func NewCodec() ports.MessageCodec {
	return codec{}
}

func (codec) EncodeMessage(msg domain.CrossChainMessage) ([]byte, error) {
	return borsh.Serialize(message{
		OriginChainID:      msg.OriginChainID,
		OriginAddress:      msg.OriginAddress,
		DestinationChainID: msg.DestinationChainID,
		DestinationAddress: msg.DestinationAddress,
		Nonce:              msg.Nonce,
		Payload:            msg.Payload,
	})
}

func (c codec) DecodeMessage(buf []byte) (*domain.CrossChainMessage, error) {
	var m message
	if err := decode(buf, &m); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	return &domain.CrossChainMessage{
		OriginChainID:      m.OriginChainID,
		OriginAddress:      m.OriginAddress,
		DestinationChainID: m.DestinationChainID,
		DestinationAddress: m.DestinationAddress,
		Nonce:              m.Nonce,
		Payload:            m.Payload,
	}, nil
}

func (codec) EncodeOutbound(payload domain.OutboundPayload) ([]byte, error) {
	return borsh.Serialize(outboundPayload{
		Asset:  payload.Asset,
		Sender: payload.Sender,
		Name:   payload.Name,
		Symbol: payload.Symbol,
		URI:    payload.URI,
	})
}

func (codec) DecodeInbound(buf []byte) (*domain.InboundPayload, error) {
	var p inboundPayload
	if err := checkStrings(buf, len(p.Recipient), 3); err != nil {
		return nil, fmt.Errorf("invalid inbound payload: %w", err)
	}
	if err := decode(buf, &p); err != nil {
		return nil, fmt.Errorf("invalid inbound payload: %w", err)
	}
	return &domain.InboundPayload{
		Recipient: common.PublicKey(p.Recipient),
		AssetMetadata: domain.AssetMetadata{
			Name:   p.Name,
			Symbol: p.Symbol,
			URI:    p.URI,
		},
	}, nil
}

// EncodeInbound builds an inbound payload. Gateways and tests use it to craft messages.
func EncodeInbound(payload domain.InboundPayload) ([]byte, error) {
	return borsh.Serialize(inboundPayload{
		Recipient: payload.Recipient,
		Name:      payload.Name,
		Symbol:    payload.Symbol,
		URI:       payload.URI,
	})
}

// decode rejects empty input and trailing bytes, which borsh itself ignores.
func decode[T any](buf []byte, v *T) error {
	if len(buf) <= 0 {
		return fmt.Errorf("empty buffer")
	}
	if err := borsh.Deserialize(v, buf); err != nil {
		return err
	}
	reencoded, err := borsh.Serialize(*v)
	if err != nil {
		return err
	}
	if len(reencoded) != len(buf) {
		return fmt.Errorf("unexpected %d trailing bytes", len(buf)-len(reencoded))
	}
	return nil
}

// checkStrings bounds the declared lengths of count consecutive strings starting at offset by
// the input size, since borsh allocates them before reading.
func checkStrings(buf []byte, offset, count int) error {
	for range count {
		if len(buf) < offset+4 {
			return fmt.Errorf("unexpected end of input")
		}
		l := int(binary.LittleEndian.Uint32(buf[offset:]))
		offset += 4
		if l > len(buf)-offset {
			return fmt.Errorf("string length %d exceeds input", l)
		}
		offset += l
	}
	return nil
}
