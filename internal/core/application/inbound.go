package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s *service) DeliverInbound(
	ctx context.Context, caller common.PublicKey, rawMessage []byte,
) (*domain.AssetInstance, error) {
	msg, err := s.codec.DecodeMessage(rawMessage)
	if err != nil {
		return nil, arkerrors.MALFORMED_PAYLOAD.Wrap(err).
			WithMetadata(arkerrors.MalformedPayloadMetadata{Reason: err.Error()})
	}
	return s.OnInboundMessage(ctx, caller, *msg)
}

func (s *service) OnInboundMessage(
	ctx context.Context, caller common.PublicKey, msg domain.CrossChainMessage,
) (asset *domain.AssetInstance, err error) {
	ctx, span := s.tracer.Start(ctx, "bridge.on_inbound_message")
	span.SetAttributes(
		attribute.Int64("origin_chain_id", int64(msg.OriginChainID)),
		attribute.Int64("nonce", int64(msg.Nonce)),
	)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			s.metrics.reject(ctx, "on_inbound_message", err)
		}
		span.End()
	}()

	cfg, err := s.getConfig(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.IsTrustedGateway(caller) {
		return nil, arkerrors.INVALID_GATEWAY.New(
			"the provided gateway address does not match the one in config",
		).WithMetadata(arkerrors.InvalidGatewayMetadata{
			Expected: cfg.GatewayAddress.ToBase58(),
			Got:      caller.ToBase58(),
		})
	}

	payload, err := s.codec.DecodeInbound(msg.Payload)
	if err != nil {
		return nil, arkerrors.MALFORMED_PAYLOAD.Wrap(err).
			WithMetadata(arkerrors.MalformedPayloadMetadata{Reason: err.Error()})
	}
	if payload.Recipient == (common.PublicKey{}) {
		return nil, arkerrors.MALFORMED_PAYLOAD.New("missing recipient").
			WithMetadata(arkerrors.MalformedPayloadMetadata{Reason: "missing recipient"})
	}
	if err := payload.AssetMetadata.Validate(); err != nil {
		return nil, arkerrors.MALFORMED_PAYLOAD.Wrap(err).
			WithMetadata(arkerrors.MalformedPayloadMetadata{Reason: err.Error()})
	}

	origin := msg.Origin()
	mint, err := domain.DeriveAssetAddress(cfg.ProgramID, origin)
	if err != nil {
		return nil, err
	}

	receipt, err := s.repoManager.Receipts().Get(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to get inbound receipt: %w", err)
	}
	if receipt != nil {
		return nil, arkerrors.MESSAGE_ALREADY_PROCESSED.New(
			"message %s already processed", origin.Key(),
		).WithMetadata(arkerrors.MessageAlreadyProcessedMetadata{
			OriginChainID: origin.ChainID,
			OriginAddress: hex.EncodeToString(origin.Address),
			Nonce:         origin.Nonce,
			Asset:         receipt.Mint.ToBase58(),
		})
	}

	signer, err := newBridgeSigner(*cfg)
	if err != nil {
		return nil, err
	}

	entry := domain.RegistryEntry{
		AssetMetadata:   payload.AssetMetadata,
		MintAuthority:   signer.PublicKey(),
		UpdateAuthority: signer.PublicKey(),
		IsMutable:       true,
		CollectionSize:  0,
	}

	// Registration and mint commit together or not at all.
	if err := s.ledger.Atomic(ctx, func(
		tokens ports.TokenLedger, registry ports.MetadataRegistry,
	) error {
		if err := tokens.CreateMint(ctx, mint, signer, signer.PublicKey(), 0); err != nil {
			return err
		}
		if err := registry.Register(ctx, mint, entry, signer, signer); err != nil {
			return err
		}
		return tokens.Mint(ctx, mint, payload.Recipient, 1, signer)
	}); err != nil {
		return nil, err
	}

	s.metrics.add(ctx, s.metrics.minted, attribute.Int64("origin_chain_id", int64(origin.ChainID)))

	// The mint is committed: its receipt and event must be recorded even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)
	now := time.Now()
	if err := s.repoManager.Receipts().Add(persistCtx, domain.InboundReceipt{
		Origin:      origin,
		Mint:        mint,
		Recipient:   payload.Recipient,
		MessageID:   msg.ID(),
		ProcessedAt: now,
	}); err != nil {
		// The mint address is derived from the origin, so a replay still collides in the ledger.
		log.WithError(err).WithField("origin", origin.Key()).Warn("failed to store inbound receipt")
	}

	s.saveEvents(persistCtx, mint, domain.AssetMinted{
		Id:            mint.ToBase58(),
		Type:          domain.EventTypeAssetMinted,
		Recipient:     payload.Recipient.ToBase58(),
		Name:          payload.Name,
		Symbol:        payload.Symbol,
		URI:           payload.URI,
		OriginChainID: origin.ChainID,
		OriginAddress: hex.EncodeToString(origin.Address),
		Nonce:         origin.Nonce,
		Timestamp:     now.Unix(),
	})

	log.WithFields(log.Fields{
		"asset":     mint.ToBase58(),
		"recipient": payload.Recipient.ToBase58(),
		"origin":    origin.Key(),
	}).Info("minted inbound asset")

	return &domain.AssetInstance{
		Mint:          mint,
		Metadata:      payload.AssetMetadata,
		MintAuthority: signer.PublicKey(),
		Supply:        1,
		Owner:         payload.Recipient,
		Origin:        origin,
	}, nil
}
