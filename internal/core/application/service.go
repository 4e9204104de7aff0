package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sanchit-4/universal-nft/internal/core/application"

type service struct {
	programID   common.PublicKey
	chainID     uint64
	repoManager ports.RepoManager
	ledger      ports.Ledger
	codec       ports.MessageCodec
	gateway     ports.GatewayTransport
	alerts      ports.Alerts
	tracer      trace.Tracer
	metrics     *bridgeMetrics

	config     *domain.BridgeConfig
	configLock *sync.RWMutex

	nonce atomic.Uint64
}

func NewService(
	programID common.PublicKey, chainID uint64,
	repoManager ports.RepoManager, ledger ports.Ledger,
	codec ports.MessageCodec, gateway ports.GatewayTransport, alerts ports.Alerts,
) (Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if ledger == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if codec == nil {
		return nil, fmt.Errorf("missing message codec")
	}
	if gateway == nil {
		return nil, fmt.Errorf("missing gateway transport")
	}

	svc := &service{
		programID:   programID,
		chainID:     chainID,
		repoManager: repoManager,
		ledger:      ledger,
		codec:       codec,
		gateway:     gateway,
		alerts:      alerts,
		tracer:      otel.Tracer(tracerName),
		metrics:     newBridgeMetrics(),
		configLock:  &sync.RWMutex{},
	}
	svc.nonce.Store(uint64(time.Now().UnixNano()))

	if alerts != nil {
		repoManager.Events().RegisterEventsHandler(
			domain.BridgeTopic, svc.publishAlertsAfterEvents,
		)
	}

	return svc, nil
}

func (s *service) Initialize(
	ctx context.Context, caller, gateway common.PublicKey,
) (*domain.BridgeConfig, error) {
	ctx, span := s.tracer.Start(ctx, "bridge.initialize")
	defer span.End()

	cfg, err := domain.NewBridgeConfig(s.programID, caller, gateway)
	if err != nil {
		return nil, arkerrors.INVALID_REQUEST.Wrap(err)
	}

	existing, err := s.repoManager.Config().Get(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge config: %w", err)
	}
	if existing != nil {
		return nil, alreadyInitialized(existing)
	}

	if err := s.repoManager.Config().Create(ctx, *cfg); err != nil {
		if errors.Is(err, domain.ErrConfigExists) {
			existing, _ := s.repoManager.Config().Get(ctx, cfg.Address)
			if existing == nil {
				existing = cfg
			}
			return nil, alreadyInitialized(existing)
		}
		return nil, fmt.Errorf("failed to store bridge config: %w", err)
	}

	s.configLock.Lock()
	s.config = cfg
	s.configLock.Unlock()

	log.WithFields(log.Fields{
		"config":    cfg.Address.ToBase58(),
		"authority": cfg.Authority.ToBase58(),
		"gateway":   cfg.GatewayAddress.ToBase58(),
	}).Info("bridge initialized")

	return cfg, nil
}

func (s *service) GetConfig(ctx context.Context) (*domain.BridgeConfig, error) {
	return s.getConfig(ctx)
}

func (s *service) GetAsset(
	ctx context.Context, asset common.PublicKey,
) (*AssetInfo, error) {
	cfg, err := s.getConfig(ctx)
	if err != nil {
		return nil, err
	}
	signer, err := newBridgeSigner(*cfg)
	if err != nil {
		return nil, err
	}

	mint, err := s.ledger.Tokens().GetMint(ctx, asset)
	if err != nil {
		if errors.Is(err, ports.ErrMintNotFound) {
			return nil, arkerrors.ASSET_NOT_FOUND.Wrap(err).
				WithMetadata(arkerrors.AssetNotFoundMetadata{Asset: asset.ToBase58()})
		}
		return nil, err
	}

	entry, err := s.ledger.Metadata().Get(ctx, asset)
	if err != nil && !errors.Is(err, ports.ErrMetadataNotFound) {
		return nil, err
	}

	custodyBalance, err := s.ledger.Tokens().BalanceOf(ctx, asset, signer.PublicKey())
	if err != nil {
		return nil, err
	}
	custodyAccount, err := signer.custodyAccount(asset)
	if err != nil {
		return nil, err
	}

	return &AssetInfo{
		Mint:            asset,
		Metadata:        entry,
		MintAuthority:   mint.Authority,
		FreezeAuthority: mint.FreezeAuthority,
		Supply:          mint.Supply,
		Locked:          custodyBalance > 0,
		CustodyAccount:  custodyAccount,
	}, nil
}

func (s *service) BalanceOf(
	ctx context.Context, asset, owner common.PublicKey,
) (uint64, error) {
	return s.ledger.Tokens().BalanceOf(ctx, asset, owner)
}

func (s *service) ListPendingEmissions(ctx context.Context) ([]domain.PendingEmission, error) {
	return s.repoManager.Emissions().List(ctx)
}

func (s *service) Close() {
	s.repoManager.Close()
	s.ledger.Close()
	s.gateway.Close()
}

// getConfig returns the cached config, loading it from the repository on first use.
func (s *service) getConfig(ctx context.Context) (*domain.BridgeConfig, error) {
	s.configLock.RLock()
	cfg := s.config
	s.configLock.RUnlock()
	if cfg != nil {
		return cfg, nil
	}

	address, _, err := common.FindProgramAddress(
		[][]byte{[]byte(domain.ConfigSeed)}, s.programID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive config address: %w", err)
	}

	cfg, err = s.repoManager.Config().Get(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge config: %w", err)
	}
	if cfg == nil {
		return nil, arkerrors.NOT_INITIALIZED.New("bridge config not found")
	}

	s.configLock.Lock()
	s.config = cfg
	s.configLock.Unlock()
	return cfg, nil
}

func (s *service) saveEvents(ctx context.Context, asset common.PublicKey, events ...domain.Event) {
	if err := s.repoManager.Events().Save(
		ctx, domain.BridgeTopic, asset.ToBase58(), events,
	); err != nil {
		log.WithError(err).WithField("asset", asset.ToBase58()).Warn("failed to save events")
	}
}

func alreadyInitialized(cfg *domain.BridgeConfig) error {
	return arkerrors.ALREADY_INITIALIZED.New("bridge already initialized").
		WithMetadata(arkerrors.AlreadyInitializedMetadata{
			Config:    cfg.Address.ToBase58(),
			Authority: cfg.Authority.ToBase58(),
		})
}
