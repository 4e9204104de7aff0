package httpservice

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	borshcodec "github.com/sanchit-4/universal-nft/internal/infrastructure/codec/borsh"
	"github.com/sanchit-4/universal-nft/internal/infrastructure/db"
	inmemorygateway "github.com/sanchit-4/universal-nft/internal/infrastructure/gateway/inmemory"
	inmemoryledger "github.com/sanchit-4/universal-nft/internal/infrastructure/ledger/inmemory"
	"github.com/sanchit-4/universal-nft/internal/interface/http/handlers"
	"github.com/sanchit-4/universal-nft/internal/interface/http/middlewares"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

var programID = common.PublicKeyFromString("5nqfDd7MiQM9FZJN26ZFumS1uKxhsvpeCjtTWFdbv5BR")

type testEnv struct {
	server    *httptest.Server
	gateway   *inmemorygateway.Transport
	authority types.Account
	relayer   types.Account
}

func newTestEnv(t *testing.T, noAuth bool) *testEnv {
	t.Helper()

	repo, err := db.NewService(db.ServiceConfig{
		EventStoreType:  "inmemory",
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)

	gateway := inmemorygateway.NewTransport()
	svc, err := application.NewService(
		programID, 900, repo, inmemoryledger.NewLedger(programID),
		borshcodec.NewCodec(), gateway, nil,
	)
	require.NoError(t, err)

	server := httptest.NewServer(newHandler(svc, noAuth))
	t.Cleanup(func() {
		server.Close()
		svc.Close()
	})

	return &testEnv{
		server:    server,
		gateway:   gateway,
		authority: types.NewAccount(),
		relayer:   types.NewAccount(),
	}
}

func (e *testEnv) do(
	t *testing.T, method, path string, signer *types.Account, body []byte,
) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if signer != nil {
		signRequest(req, signer, signer, body)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	// nolint:all
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func (e *testEnv) initialize(t *testing.T) {
	t.Helper()
	body := mustJSON(t, handlers.InitializeRequest{Gateway: e.relayer.PublicKey.ToBase58()})
	status, _ := e.do(t, http.MethodPost, "/v1/initialize", &e.authority, body)
	require.Equal(t, http.StatusCreated, status)
}

func inboundMessage(t *testing.T, recipient common.PublicKey, nonce uint64) []byte {
	t.Helper()

	payload, err := borshcodec.EncodeInbound(domain.InboundPayload{
		Recipient: recipient,
		AssetMetadata: domain.AssetMetadata{
			Name:   "Zeta NFT",
			Symbol: "ZNFT",
			URI:    "https://zetachain.com/nft.json",
		},
	})
	require.NoError(t, err)

	raw, err := borshcodec.NewCodec().EncodeMessage(domain.CrossChainMessage{
		OriginChainID:      7001,
		OriginAddress:      []byte{0x73, 0x5b, 0x14, 0xbb},
		DestinationChainID: 900,
		DestinationAddress: programID.Bytes(),
		Nonce:              nonce,
		Payload:            payload,
	})
	require.NoError(t, err)
	return raw
}

func TestBridgeRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	holder := types.NewAccount()

	status, body := env.do(t, http.MethodGet, "/v1/config", nil, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "NOT_INITIALIZED", decodeError(t, body).Name)

	env.initialize(t)

	status, body = env.do(t, http.MethodGet, "/v1/config", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var cfg handlers.Config
	require.NoError(t, json.Unmarshal(body, &cfg))
	require.Equal(t, env.authority.PublicKey.ToBase58(), cfg.Authority)
	require.Equal(t, env.relayer.PublicKey.ToBase58(), cfg.GatewayAddress)

	t.Run("initialize twice", func(t *testing.T) {
		body := mustJSON(t, handlers.InitializeRequest{Gateway: holder.PublicKey.ToBase58()})
		status, resp := env.do(t, http.MethodPost, "/v1/initialize", &holder, body)
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, "ALREADY_INITIALIZED", decodeError(t, resp).Name)
	})

	var mint string
	t.Run("deliver inbound", func(t *testing.T) {
		raw := inboundMessage(t, holder.PublicKey, 1)

		status, resp := env.do(t, http.MethodPost, "/v1/gateway/deliver", &holder, raw)
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "INVALID_GATEWAY", decodeError(t, resp).Name)

		status, resp = env.do(t, http.MethodPost, "/v1/gateway/deliver", &env.relayer, raw)
		require.Equal(t, http.StatusCreated, status)
		var asset handlers.Asset
		require.NoError(t, json.Unmarshal(resp, &asset))
		require.Equal(t, holder.PublicKey.ToBase58(), asset.Owner)
		require.Equal(t, uint64(1), asset.Supply)
		require.Equal(t, "ZNFT", asset.Symbol)
		mint = asset.Mint

		status, resp = env.do(t, http.MethodPost, "/v1/gateway/deliver", &env.relayer, raw)
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, "MESSAGE_ALREADY_PROCESSED", decodeError(t, resp).Name)

		status, resp = env.do(t, http.MethodPost, "/v1/gateway/deliver", &env.relayer, []byte{1, 2})
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "MALFORMED_PAYLOAD", decodeError(t, resp).Name)
	})

	balancePath := fmt.Sprintf("/v1/assets/%s/balances/%s", mint, holder.PublicKey.ToBase58())
	status, body = env.do(t, http.MethodGet, balancePath, nil, nil)
	require.Equal(t, http.StatusOK, status)
	var balance handlers.Balance
	require.NoError(t, json.Unmarshal(body, &balance))
	require.Equal(t, uint64(1), balance.Balance)

	outbound := mustJSON(t, handlers.OutboundRequest{
		Asset:              mint,
		DestinationChainID: 7001,
		DestinationAddress: "0x735b14bb79463307aacbed86daf3322b1e6226ab",
		Gateway:            env.relayer.PublicKey.ToBase58(),
	})

	t.Run("send outbound", func(t *testing.T) {
		status, resp := env.do(t, http.MethodPost, "/v1/outbound", &holder, outbound)
		require.Equal(t, http.StatusOK, status)
		var msg handlers.Message
		require.NoError(t, json.Unmarshal(resp, &msg))
		require.Equal(t, uint64(900), msg.OriginChainID)
		require.Equal(t, uint64(7001), msg.DestinationChainID)
		require.Equal(t, "735b14bb79463307aacbed86daf3322b1e6226ab", msg.DestinationAddress)
		require.Len(t, env.gateway.Messages(), 1)
		require.Equal(t, msg.ID, env.gateway.Messages()[0].ID())

		status, resp = env.do(t, http.MethodGet, "/v1/assets/"+mint, nil, nil)
		require.Equal(t, http.StatusOK, status)
		var info handlers.AssetInfo
		require.NoError(t, json.Unmarshal(resp, &info))
		require.True(t, info.Locked)
		require.Equal(t, "Zeta NFT", info.Name)
		require.Equal(t, info.MintAuthority, info.FreezeAuthority)

		status, resp = env.do(t, http.MethodPost, "/v1/outbound", &holder, outbound)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "NO_TOKENS", decodeError(t, resp).Name)
	})

	t.Run("emission failure", func(t *testing.T) {
		other := types.NewAccount()
		raw := inboundMessage(t, other.PublicKey, 2)
		status, resp := env.do(t, http.MethodPost, "/v1/gateway/deliver", &env.relayer, raw)
		require.Equal(t, http.StatusCreated, status)
		var asset handlers.Asset
		require.NoError(t, json.Unmarshal(resp, &asset))

		env.gateway.FailWith(fmt.Errorf("relayer offline"))
		defer env.gateway.FailWith(nil)

		body := mustJSON(t, handlers.OutboundRequest{
			Asset:              asset.Mint,
			DestinationChainID: 7001,
			DestinationAddress: "735b14bb",
			Gateway:            env.relayer.PublicKey.ToBase58(),
		})
		status, resp = env.do(t, http.MethodPost, "/v1/outbound", &other, body)
		require.Equal(t, http.StatusServiceUnavailable, status)
		errResp := decodeError(t, resp)
		require.Equal(t, "EMISSION_FAILED", errResp.Name)
		require.Equal(t, asset.Mint, errResp.Metadata["asset"])

		status, resp = env.do(t, http.MethodGet, "/v1/emissions/pending", nil, nil)
		require.Equal(t, http.StatusOK, status)
		var pending []handlers.PendingEmission
		require.NoError(t, json.Unmarshal(resp, &pending))
		require.Len(t, pending, 1)
		require.Equal(t, errResp.Metadata["emission_id"], pending[0].ID)
		require.Equal(t, other.PublicKey.ToBase58(), pending[0].Sender)
	})

	t.Run("asset not found", func(t *testing.T) {
		status, resp := env.do(
			t, http.MethodGet, "/v1/assets/"+types.NewAccount().PublicKey.ToBase58(), nil, nil,
		)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "ASSET_NOT_FOUND", decodeError(t, resp).Name)

		status, resp = env.do(t, http.MethodGet, "/v1/assets/invalid", nil, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "INVALID_REQUEST", decodeError(t, resp).Name)
	})
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, false)
	body := mustJSON(t, handlers.InitializeRequest{Gateway: env.relayer.PublicKey.ToBase58()})

	status, resp := env.do(t, http.MethodPost, "/v1/initialize", nil, body)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHENTICATED", decodeError(t, resp).Name)

	req, err := http.NewRequest(
		http.MethodPost, env.server.URL+"/v1/initialize", bytes.NewReader(body),
	)
	require.NoError(t, err)
	signRequest(req, &env.authority, &env.relayer, body)
	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	// nolint:all
	httpResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, httpResp.StatusCode)

	t.Run("no auth", func(t *testing.T) {
		env := newTestEnv(t, true)
		body := mustJSON(t, handlers.InitializeRequest{Gateway: env.relayer.PublicKey.ToBase58()})

		req, err := http.NewRequest(
			http.MethodPost, env.server.URL+"/v1/initialize", bytes.NewReader(body),
		)
		require.NoError(t, err)
		req.Header.Set(middlewares.CallerHeader, env.authority.PublicKey.ToBase58())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		// nolint:all
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	status, body := env.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"ok"}`, string(body))

	t.Run("cleartext http2", func(t *testing.T) {
		client := &http.Client{Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(
				ctx context.Context, network, addr string, _ *tls.Config,
			) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}}

		resp, err := client.Get(env.server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 2, resp.ProtoMajor)
	})
}

// signRequest sets the auth headers of req for caller with a signature made by signer.
func signRequest(req *http.Request, caller, signer *types.Account, body []byte) {
	timestamp := time.Now().Unix()
	nonce := uuid.New().String()
	payload := middlewares.SigningPayload(req.Method, req.URL.Path, timestamp, nonce, body)
	req.Header.Set(middlewares.CallerHeader, caller.PublicKey.ToBase58())
	req.Header.Set(middlewares.TimestampHeader, strconv.FormatInt(timestamp, 10))
	req.Header.Set(middlewares.NonceHeader, nonce)
	req.Header.Set(middlewares.SignatureHeader, base58.Encode(signer.Sign(payload)))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return buf
}

func decodeError(t *testing.T, body []byte) middlewares.ErrorResponse {
	t.Helper()
	var resp middlewares.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	return resp
}
