package abicodec

import (
	"bytes"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
	stringType, _  = abi.NewType("string", "", nil)
	uint64Type, _  = abi.NewType("uint64", "", nil)

	// (uint64 originChainId, bytes originAddress, uint64 destinationChainId,
	// bytes destinationAddress, uint64 nonce, bytes payload)
	messageArgs = abi.Arguments{
		{Name: "originChainId", Type: uint64Type},
		{Name: "originAddress", Type: bytesType},
		{Name: "destinationChainId", Type: uint64Type},
		{Name: "destinationAddress", Type: bytesType},
		{Name: "nonce", Type: uint64Type},
		{Name: "payload", Type: bytesType},
	}
	// (bytes32 recipient, string name, string symbol, string uri)
	inboundArgs = abi.Arguments{
		{Name: "recipient", Type: bytes32Type},
		{Name: "name", Type: stringType},
		{Name: "symbol", Type: stringType},
		{Name: "uri", Type: stringType},
	}
	// (bytes32 asset, bytes32 sender, string name, string symbol, string uri)
	outboundArgs = abi.Arguments{
		{Name: "asset", Type: bytes32Type},
		{Name: "sender", Type: bytes32Type},
		{Name: "name", Type: stringType},
		{Name: "symbol", Type: stringType},
		{Name: "uri", Type: stringType},
	}
)

type codec struct{}

// NewCodec returns the codec for gateways speaking the Ethereum contract ABI.
func NewCodec() ports.MessageCodec {
	return codec{}
}

func (codec) EncodeMessage(msg domain.CrossChainMessage) ([]byte, error) {
	return messageArgs.Pack(
		msg.OriginChainID, nonNil(msg.OriginAddress),
		msg.DestinationChainID, nonNil(msg.DestinationAddress),
		msg.Nonce, nonNil(msg.Payload),
	)
}

func (codec) DecodeMessage(buf []byte) (*domain.CrossChainMessage, error) {
	values, err := unpack(messageArgs, buf)
	if err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	originChainID, ok1 := values[0].(uint64)
	originAddress, ok2 := values[1].([]byte)
	destinationChainID, ok3 := values[2].(uint64)
	destinationAddress, ok4 := values[3].([]byte)
	nonce, ok5 := values[4].(uint64)
	payload, ok6 := values[5].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return nil, fmt.Errorf("invalid message: unexpected field types")
	}

	return &domain.CrossChainMessage{
		OriginChainID:      originChainID,
		OriginAddress:      originAddress,
		DestinationChainID: destinationChainID,
		DestinationAddress: destinationAddress,
		Nonce:              nonce,
		Payload:            payload,
	}, nil
}

func (codec) EncodeOutbound(payload domain.OutboundPayload) ([]byte, error) {
	return outboundArgs.Pack(
		[32]byte(payload.Asset), [32]byte(payload.Sender),
		payload.Name, payload.Symbol, payload.URI,
	)
}

func (codec) DecodeInbound(buf []byte) (*domain.InboundPayload, error) {
	values, err := unpack(inboundArgs, buf)
	if err != nil {
		return nil, fmt.Errorf("invalid inbound payload: %w", err)
	}

	recipient, ok1 := values[0].([32]byte)
	name, ok2 := values[1].(string)
	symbol, ok3 := values[2].(string)
	uri, ok4 := values[3].(string)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("invalid inbound payload: unexpected field types")
	}

	return &domain.InboundPayload{
		Recipient: common.PublicKey(recipient),
		AssetMetadata: domain.AssetMetadata{
			Name:   name,
			Symbol: symbol,
			URI:    uri,
		},
	}, nil
}

// EncodeInbound builds an inbound payload. Gateways and tests use it to craft messages.
func EncodeInbound(payload domain.InboundPayload) ([]byte, error) {
	return inboundArgs.Pack(
		[32]byte(payload.Recipient), payload.Name, payload.Symbol, payload.URI,
	)
}

// unpack only accepts the canonical encoding of the given arguments.
func unpack(args abi.Arguments, buf []byte) ([]interface{}, error) {
	values, err := args.Unpack(buf)
	if err != nil {
		return nil, err
	}
	if len(values) != len(args) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(args), len(values))
	}
	repacked, err := args.Pack(values...)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(repacked, buf) {
		return nil, fmt.Errorf("non canonical encoding")
	}
	return values, nil
}

func nonNil(buf []byte) []byte {
	if buf == nil {
		return []byte{}
	}
	return buf
}
