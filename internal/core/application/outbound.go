package application

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s *service) SendOutbound(
	ctx context.Context, req OutboundRequest,
) (msg *domain.CrossChainMessage, err error) {
	ctx, span := s.tracer.Start(ctx, "bridge.send_outbound")
	span.SetAttributes(
		attribute.String("asset", req.Asset.ToBase58()),
		attribute.Int64("destination_chain_id", int64(req.DestinationChainID)),
	)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			s.metrics.reject(ctx, "send_outbound", err)
		}
		span.End()
	}()

	cfg, err := s.getConfig(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Tokens().BalanceOf(ctx, req.Asset, req.Caller)
	if err != nil {
		return nil, err
	}
	if balance < 1 {
		return nil, arkerrors.NO_TOKENS.New(
			"the sender's token account has no tokens to send",
		).WithMetadata(arkerrors.NoTokensMetadata{
			Asset:   req.Asset.ToBase58(),
			Holder:  req.Caller.ToBase58(),
			Balance: balance,
		})
	}

	if !cfg.IsTrustedGateway(req.Gateway) {
		return nil, arkerrors.INVALID_GATEWAY.New(
			"the provided gateway address does not match the one in config",
		).WithMetadata(arkerrors.InvalidGatewayMetadata{
			Expected: cfg.GatewayAddress.ToBase58(),
			Got:      req.Gateway.ToBase58(),
		})
	}

	if len(req.DestinationAddress) <= 0 {
		return nil, arkerrors.INVALID_REQUEST.New("missing destination address").
			WithMetadata(arkerrors.InvalidRequestMetadata{Field: "destination_address"})
	}

	signer, err := newBridgeSigner(*cfg)
	if err != nil {
		return nil, err
	}

	outbound := domain.OutboundPayload{Asset: req.Asset, Sender: req.Caller}
	entry, err := s.ledger.Metadata().Get(ctx, req.Asset)
	if err != nil && !errors.Is(err, ports.ErrMetadataNotFound) {
		return nil, err
	}
	if entry != nil {
		outbound.AssetMetadata = entry.AssetMetadata
	}

	// Encode before locking so that a codec failure never leaves the asset in custody.
	payload, err := s.codec.EncodeOutbound(outbound)
	if err != nil {
		return nil, arkerrors.INTERNAL_ERROR.Wrap(
			fmt.Errorf("failed to encode outbound payload: %w", err),
		)
	}

	if err := s.ledger.Tokens().Transfer(
		ctx, req.Asset, req.Caller, signer.PublicKey(), 1,
	); err != nil {
		return nil, err
	}
	s.metrics.add(ctx, s.metrics.locked)

	// The lock is committed: what follows must be recorded even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)

	custodyAccount, err := signer.custodyAccount(req.Asset)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	locked := domain.AssetLocked{
		Id:        req.Asset.ToBase58(),
		Type:      domain.EventTypeAssetLocked,
		Holder:    req.Caller.ToBase58(),
		Custody:   custodyAccount.ToBase58(),
		Timestamp: now.Unix(),
	}

	message := domain.CrossChainMessage{
		OriginChainID:      s.chainID,
		OriginAddress:      cfg.ProgramID.Bytes(),
		DestinationChainID: req.DestinationChainID,
		DestinationAddress: req.DestinationAddress,
		Nonce:              s.nonce.Add(1),
		Payload:            payload,
	}

	if err := s.gateway.Send(ctx, message); err != nil {
		s.metrics.add(ctx, s.metrics.emissionsFailed,
			attribute.Int64("destination_chain_id", int64(req.DestinationChainID)),
		)
		emission := domain.NewPendingEmission(req.Asset, req.Caller, message, err.Error())
		if err := s.repoManager.Emissions().Add(persistCtx, emission); err != nil {
			log.WithError(err).WithField("emission", emission.ID).
				Error("failed to store pending emission")
		}

		s.saveEvents(persistCtx, req.Asset, locked, domain.OutboundEmissionFailed{
			Id:                 req.Asset.ToBase58(),
			Type:               domain.EventTypeOutboundEmissionFailed,
			EmissionID:         emission.ID,
			DestinationChainID: req.DestinationChainID,
			Reason:             err.Error(),
			Timestamp:          now.Unix(),
		})

		log.WithError(err).WithFields(log.Fields{
			"asset":    req.Asset.ToBase58(),
			"emission": emission.ID,
		}).Error("asset locked but outbound message emission failed")

		return nil, arkerrors.EMISSION_FAILED.Wrap(err).
			WithMetadata(arkerrors.EmissionFailedMetadata{
				Asset:              req.Asset.ToBase58(),
				EmissionID:         emission.ID,
				DestinationChainID: req.DestinationChainID,
			})
	}

	s.saveEvents(persistCtx, req.Asset, locked, domain.OutboundMessageEmitted{
		Id:                 req.Asset.ToBase58(),
		Type:               domain.EventTypeOutboundMessageEmitted,
		MessageID:          message.ID(),
		DestinationChainID: req.DestinationChainID,
		DestinationAddress: hex.EncodeToString(req.DestinationAddress),
		Timestamp:          now.Unix(),
	})

	log.WithFields(log.Fields{
		"asset":             req.Asset.ToBase58(),
		"holder":            req.Caller.ToBase58(),
		"destination_chain": req.DestinationChainID,
	}).Info("asset locked and outbound message emitted")

	return &message, nil
}
