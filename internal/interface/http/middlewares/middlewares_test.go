package middlewares

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorConverter(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedName   string
		expectedReason string
	}{
		{
			name: "typed error",
			err: arkerrors.NO_TOKENS.New("no tokens").
				WithMetadata(arkerrors.NoTokensMetadata{Asset: "asset"}),
			expectedStatus: http.StatusBadRequest,
			expectedName:   "NO_TOKENS",
		},
		{
			name:           "wrapped typed error",
			err:            fmt.Errorf("outer: %w", arkerrors.INVALID_GATEWAY.New("bad gateway")),
			expectedStatus: http.StatusForbidden,
			expectedName:   "INVALID_GATEWAY",
		},
		{
			name:           "account exists",
			err:            fmt.Errorf("%w: mint", ports.ErrAccountAlreadyExists),
			expectedStatus: http.StatusConflict,
			expectedName:   "LEDGER_REJECTED",
			expectedReason: ports.ErrAccountAlreadyExists.Error(),
		},
		{
			name:           "insufficient funds",
			err:            fmt.Errorf("%w: balance 0", ports.ErrInsufficientFunds),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedName:   "LEDGER_REJECTED",
			expectedReason: ports.ErrInsufficientFunds.Error(),
		},
		{
			name:           "metadata missing",
			err:            fmt.Errorf("%w: asset", ports.ErrMetadataNotFound),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedName:   "LEDGER_REJECTED",
			expectedReason: ports.ErrMetadataNotFound.Error(),
		},
		{
			name:           "unknown error",
			err:            fmt.Errorf("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedName:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ErrorConverter(func(http.ResponseWriter, *http.Request) error {
				return tt.err
			})
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.expectedStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.expectedName, resp.Name)
			if tt.expectedReason != "" {
				require.Equal(t, tt.expectedReason, resp.Metadata["reason"])
			}
		})
	}

	t.Run("unknown error is not leaked", func(t *testing.T) {
		handler := ErrorConverter(func(http.ResponseWriter, *http.Request) error {
			return fmt.Errorf("password=secret")
		})
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("metadata", func(t *testing.T) {
		handler := ErrorConverter(func(http.ResponseWriter, *http.Request) error {
			return arkerrors.NO_TOKENS.New("no tokens").WithMetadata(arkerrors.NoTokensMetadata{
				Asset: "asset", Holder: "holder", Balance: 0,
			})
		})
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, uint16(2), resp.Code)
		require.Equal(t, "holder", resp.Metadata["holder"])
		require.Equal(t, "0", resp.Metadata["balance"])
	})
}

func TestPanicRecovery(t *testing.T) {
	handler := PanicRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INTERNAL_ERROR", resp.Name)
}

func TestAuth(t *testing.T) {
	signer := types.NewAccount()
	body := []byte(`{"gateway":"x"}`)
	now := time.Now().Unix()

	const nonce = "1"
	sign := func(method, path string, timestamp int64, body []byte) string {
		return base58.Encode(signer.Sign(SigningPayload(method, path, timestamp, nonce, body)))
	}

	var gotCaller common.PublicKey
	var gotBody []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		require.True(t, ok)
		gotCaller = caller
		buf := new(bytes.Buffer)
		_, err := buf.ReadFrom(r.Body)
		require.NoError(t, err)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		noAuth         bool
		caller         string
		timestamp      string
		signature      string
		noNonce        bool
		expectedStatus int
	}{
		{
			name:           "valid signature",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPost, "/v1/outbound", now, body),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "missing caller",
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPost, "/v1/outbound", now, body),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid caller",
			caller:         "not-a-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing signature",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing timestamp",
			caller:         signer.PublicKey.ToBase58(),
			signature:      sign(http.MethodPost, "/v1/outbound", now, body),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "signature of other body",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPost, "/v1/outbound", now, []byte("other")),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "signature of other path",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPost, "/v1/initialize", now, body),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "signature of other method",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPut, "/v1/outbound", now, body),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "stale timestamp",
			caller:    signer.PublicKey.ToBase58(),
			timestamp: strconv.FormatInt(now-int64(2*MaxClockSkew/time.Second), 10),
			signature: sign(
				http.MethodPost, "/v1/outbound", now-int64(2*MaxClockSkew/time.Second), body,
			),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing nonce",
			caller:         signer.PublicKey.ToBase58(),
			timestamp:      strconv.FormatInt(now, 10),
			signature:      sign(http.MethodPost, "/v1/outbound", now, body),
			noNonce:        true,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "no auth skips signature",
			noAuth:         true,
			caller:         signer.PublicKey.ToBase58(),
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCaller, gotBody = common.PublicKey{}, nil

			req := httptest.NewRequest(http.MethodPost, "/v1/outbound", bytes.NewReader(body))
			if tt.caller != "" {
				req.Header.Set(CallerHeader, tt.caller)
			}
			if tt.timestamp != "" {
				req.Header.Set(TimestampHeader, tt.timestamp)
			}
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			if !tt.noNonce {
				req.Header.Set(NonceHeader, nonce)
			}
			rec := httptest.NewRecorder()
			Auth(tt.noAuth)(next).ServeHTTP(rec, req)

			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusNoContent {
				require.Equal(t, signer.PublicKey, gotCaller)
				require.Equal(t, body, gotBody)
				return
			}
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, "UNAUTHENTICATED", resp.Name)
		})
	}

	t.Run("signature used twice", func(t *testing.T) {
		handler := Auth(false)(next)
		sig := sign(http.MethodPost, "/v1/outbound", now, body)

		send := func() int {
			req := httptest.NewRequest(http.MethodPost, "/v1/outbound", bytes.NewReader(body))
			req.Header.Set(CallerHeader, signer.PublicKey.ToBase58())
			req.Header.Set(TimestampHeader, strconv.FormatInt(now, 10))
			req.Header.Set(NonceHeader, nonce)
			req.Header.Set(SignatureHeader, sig)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		require.Equal(t, http.StatusNoContent, send())
		require.Equal(t, http.StatusUnauthorized, send())
	})
}
