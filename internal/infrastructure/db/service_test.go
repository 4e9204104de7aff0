package db_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	"github.com/sanchit-4/universal-nft/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestService(t *testing.T) {
	dbDir := t.TempDir()
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "sqlite",
				DataStoreConfig: []interface{}{dbDir},
			},
		},
	}
	if pgDsn := os.Getenv("NFTBRIDGE_TEST_PG_URL"); pgDsn != "" {
		tests = append(tests, struct {
			name   string
			config db.ServiceConfig
		}{
			name: "repo_manager_with_postgres_stores",
			config: db.ServiceConfig{
				EventStoreType:   "postgres",
				DataStoreType:    "postgres",
				EventStoreConfig: []interface{}{pgDsn, true},
				DataStoreConfig:  []interface{}{pgDsn, true},
			},
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testConfigRepository(t, svc)
			testReceiptRepository(t, svc)
			testEmissionRepository(t, svc)
			testEventRepository(t, svc)

			svc.Close()
		})
	}
}

func TestServiceInvalidConfig(t *testing.T) {
	_, err := db.NewService(db.ServiceConfig{
		EventStoreType: "inmemory",
		DataStoreType:  "mysql",
	})
	require.Error(t, err)

	_, err = db.NewService(db.ServiceConfig{
		EventStoreType:  "kafka",
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.Error(t, err)

	_, err = db.NewService(db.ServiceConfig{
		EventStoreType:  "inmemory",
		DataStoreType:   "sqlite",
		DataStoreConfig: []interface{}{42},
	})
	require.Error(t, err)
}

func testConfigRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_config_repository", func(t *testing.T) {
		programID := types.NewAccount().PublicKey
		cfg, err := domain.NewBridgeConfig(
			programID, types.NewAccount().PublicKey, types.NewAccount().PublicKey,
		)
		require.NoError(t, err)
		cfg.CreatedAt = time.Unix(cfg.CreatedAt.Unix(), 0)

		got, err := svc.Config().Get(ctx, cfg.Address)
		require.NoError(t, err)
		require.Nil(t, got)

		err = svc.Config().Create(ctx, *cfg)
		require.NoError(t, err)

		got, err = svc.Config().Get(ctx, cfg.Address)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, cfg.Address, got.Address)
		require.Equal(t, cfg.ProgramID, got.ProgramID)
		require.Equal(t, cfg.Authority, got.Authority)
		require.Equal(t, cfg.GatewayAddress, got.GatewayAddress)
		require.Equal(t, cfg.SigningSeed, got.SigningSeed)
		require.Equal(t, cfg.Bump, got.Bump)
		require.Equal(t, cfg.CreatedAt.Unix(), got.CreatedAt.Unix())

		other, err := domain.NewBridgeConfig(
			programID, types.NewAccount().PublicKey, types.NewAccount().PublicKey,
		)
		require.NoError(t, err)
		err = svc.Config().Create(ctx, *other)
		require.ErrorIs(t, err, domain.ErrConfigExists)

		got, err = svc.Config().Get(ctx, cfg.Address)
		require.NoError(t, err)
		require.Equal(t, cfg.Authority, got.Authority)
	})
}

func testReceiptRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_receipt_repository", func(t *testing.T) {
		origin := domain.Origin{
			ChainID: 7001,
			Address: types.NewAccount().PublicKey.Bytes(),
			Nonce:   1 << 63,
		}
		receipt := domain.InboundReceipt{
			Origin:      origin,
			Mint:        types.NewAccount().PublicKey,
			Recipient:   types.NewAccount().PublicKey,
			MessageID:   "0badc0de",
			ProcessedAt: time.Unix(time.Now().Unix(), 0),
		}

		got, err := svc.Receipts().Get(ctx, origin)
		require.NoError(t, err)
		require.Nil(t, got)

		err = svc.Receipts().Add(ctx, receipt)
		require.NoError(t, err)

		got, err = svc.Receipts().Get(ctx, origin)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, receipt.Origin, got.Origin)
		require.Equal(t, receipt.Mint, got.Mint)
		require.Equal(t, receipt.Recipient, got.Recipient)
		require.Equal(t, receipt.MessageID, got.MessageID)
		require.Equal(t, receipt.ProcessedAt.Unix(), got.ProcessedAt.Unix())

		err = svc.Receipts().Add(ctx, receipt)
		require.True(t, errors.Is(err, domain.ErrReceiptExists))

		other := origin
		other.Nonce++
		got, err = svc.Receipts().Get(ctx, other)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func testEmissionRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_emission_repository", func(t *testing.T) {
		before, err := svc.Emissions().List(ctx)
		require.NoError(t, err)

		msg := domain.CrossChainMessage{
			OriginChainID:      900,
			OriginAddress:      types.NewAccount().PublicKey.Bytes(),
			DestinationChainID: 7001,
			DestinationAddress: []byte{0xde, 0xad, 0xbe, 0xef},
			Nonce:              42,
			Payload:            []byte("payload"),
		}
		emission := domain.NewPendingEmission(
			types.NewAccount().PublicKey, types.NewAccount().PublicKey, msg, "gateway unreachable",
		)
		err = svc.Emissions().Add(ctx, emission)
		require.NoError(t, err)

		after, err := svc.Emissions().List(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)

		var found *domain.PendingEmission
		for i := range after {
			if after[i].ID == emission.ID {
				found = &after[i]
			}
		}
		require.NotNil(t, found)
		require.Equal(t, emission.Asset, found.Asset)
		require.Equal(t, emission.Sender, found.Sender)
		require.Equal(t, emission.Message, found.Message)
		require.Equal(t, emission.Reason, found.Reason)
	})
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		asset := types.NewAccount().PublicKey.ToBase58()
		received := make(chan []domain.Event, 1)
		svc.Events().RegisterEventsHandler(domain.BridgeTopic, func(events []domain.Event) {
			if len(events) <= 0 {
				return
			}
			if locked, ok := events[0].(domain.AssetLocked); ok && locked.Id == asset {
				received <- events
			}
		})
		defer svc.Events().ClearRegisteredHandlers(domain.BridgeTopic)

		events := []domain.Event{
			domain.AssetLocked{
				Id:      asset,
				Type:    domain.EventTypeAssetLocked,
				Holder:  types.NewAccount().PublicKey.ToBase58(),
				Custody: types.NewAccount().PublicKey.ToBase58(),
			},
			domain.OutboundEmissionFailed{
				Id:                 asset,
				Type:               domain.EventTypeOutboundEmissionFailed,
				EmissionID:         "emission",
				DestinationChainID: 7001,
				Reason:             "gateway unreachable",
			},
		}
		err := svc.Events().Save(ctx, domain.BridgeTopic, asset, events)
		require.NoError(t, err)

		select {
		case got := <-received:
			require.Equal(t, events, got)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	})
}
