package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestPostgresEventStore(t *testing.T) {
	// sql.Open does not connect, so the store is built without a running postgres.
	pg, err := sql.Open(
		"postgres", "postgres://nftbridge@127.0.0.1:1/nftbridge?sslmode=disable&connect_timeout=1",
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		//nolint:errcheck
		pg.Close()
	})

	store, err := newPostgresEventStore(pg)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	err = store.Save(context.Background(), domain.BridgeTopic, "asset", []domain.Event{
		domain.AssetMinted{Id: "asset", Type: domain.EventTypeAssetMinted},
	})
	require.Error(t, err)
}
