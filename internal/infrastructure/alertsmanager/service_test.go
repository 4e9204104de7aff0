package alertsmanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/ports"
	"github.com/stretchr/testify/require"
)

func newTestService(url string) *service {
	svc := NewService(url, "https://explorer.solana.com/").(*service)
	svc.baseDelay = time.Millisecond
	return svc
}

func TestPublish(t *testing.T) {
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newTestService(srv.URL)

	err := svc.Publish(context.Background(), ports.OutboundEmissionFailed,
		ports.OutboundEmissionFailedAlert{
			EmissionID:         "emission",
			Asset:              "asset",
			Sender:             "sender",
			DestinationChainID: 7001,
			Reason:             "gateway unreachable",
		},
	)
	require.NoError(t, err)
	require.Len(t, received, 1)

	alert := received[0]
	require.Equal(t, string(ports.OutboundEmissionFailed), alert.Labels["alertname"])
	require.Equal(t, serviceName, alert.Labels["service"])
	require.Equal(t, severityCritical, alert.Labels["severity"])
	require.Equal(t, "asset", alert.Labels["asset"])
	require.Contains(t, alert.Annotations["description"], "https://explorer.solana.com/address/asset")
	require.Contains(t, alert.Annotations["description"], "gateway unreachable")

	err = svc.Publish(context.Background(), ports.OutboundEmissionFailed, "not an alert")
	require.Error(t, err)

	err = svc.Publish(context.Background(), ports.AssetMinted, map[string]any{
		"asset": "asset", "recipient": "recipient",
	})
	require.NoError(t, err)
	require.Equal(t, severityInfo, received[0].Labels["severity"])
	require.Equal(t, "• asset: asset\n• recipient: recipient", received[0].Annotations["description"])
}

func TestPublishRetries(t *testing.T) {
	t.Run("server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), ports.AssetMinted, nil)
		require.NoError(t, err)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), ports.AssetMinted, nil)
		require.Error(t, err)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := newTestService(srv.URL).Publish(context.Background(), ports.AssetMinted, nil)
		require.Error(t, err)
		require.Equal(t, int32(maxRetries), calls.Load())
	})
}
