package handlers

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/go-chi/chi/v5"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/interface/http/middlewares"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
)

type BridgeHandler struct {
	svc application.Service
}

func NewBridgeHandler(svc application.Service) *BridgeHandler {
	return &BridgeHandler{svc}
}

func (h *BridgeHandler) Initialize(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var req InitializeRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	gateway, err := parseKey("gateway", req.Gateway)
	if err != nil {
		return err
	}

	cfg, err := h.svc.Initialize(r.Context(), caller, gateway)
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusCreated, toConfig(*cfg))
	return nil
}

func (h *BridgeHandler) DeliverInbound(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	rawMessage, err := io.ReadAll(r.Body)
	if err != nil {
		return invalidRequest("body", "failed to read body: %s", err)
	}

	asset, err := h.svc.DeliverInbound(r.Context(), caller, rawMessage)
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusCreated, toAsset(*asset))
	return nil
}

func (h *BridgeHandler) SendOutbound(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var req OutboundRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	asset, err := parseKey("asset", req.Asset)
	if err != nil {
		return err
	}
	gateway, err := parseKey("gateway", req.Gateway)
	if err != nil {
		return err
	}
	destination, err := hex.DecodeString(strings.TrimPrefix(req.DestinationAddress, "0x"))
	if err != nil {
		return invalidRequest("destination_address", "invalid destination address: %s", err)
	}

	msg, err := h.svc.SendOutbound(r.Context(), application.OutboundRequest{
		Caller:             caller,
		Asset:              asset,
		DestinationChainID: req.DestinationChainID,
		DestinationAddress: destination,
		Gateway:            gateway,
	})
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusOK, toMessage(*msg))
	return nil
}

func (h *BridgeHandler) GetConfig(w http.ResponseWriter, r *http.Request) error {
	cfg, err := h.svc.GetConfig(r.Context())
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusOK, toConfig(*cfg))
	return nil
}

func (h *BridgeHandler) GetAsset(w http.ResponseWriter, r *http.Request) error {
	asset, err := parseKey("mint", chi.URLParam(r, "mint"))
	if err != nil {
		return err
	}

	info, err := h.svc.GetAsset(r.Context(), asset)
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusOK, toAssetInfo(*info))
	return nil
}

func (h *BridgeHandler) GetBalance(w http.ResponseWriter, r *http.Request) error {
	asset, err := parseKey("mint", chi.URLParam(r, "mint"))
	if err != nil {
		return err
	}
	owner, err := parseKey("owner", chi.URLParam(r, "owner"))
	if err != nil {
		return err
	}

	balance, err := h.svc.BalanceOf(r.Context(), asset, owner)
	if err != nil {
		return err
	}

	middlewares.WriteJSON(w, http.StatusOK, Balance{
		Asset:   asset.ToBase58(),
		Owner:   owner.ToBase58(),
		Balance: balance,
	})
	return nil
}

func (h *BridgeHandler) ListPendingEmissions(w http.ResponseWriter, r *http.Request) error {
	emissions, err := h.svc.ListPendingEmissions(r.Context())
	if err != nil {
		return err
	}

	resp := make([]PendingEmission, 0, len(emissions))
	for _, emission := range emissions {
		resp = append(resp, toPendingEmission(emission))
	}
	middlewares.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func Health(w http.ResponseWriter, _ *http.Request) {
	middlewares.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func callerFromRequest(r *http.Request) (common.PublicKey, error) {
	caller, ok := middlewares.CallerFromContext(r.Context())
	if !ok {
		return common.PublicKey{}, arkerrors.UNAUTHENTICATED.New("missing caller")
	}
	return caller, nil
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return invalidRequest("body", "invalid json body: %s", err)
	}
	return nil
}

func parseKey(field, value string) (common.PublicKey, error) {
	key, err := domain.ParsePublicKey(value)
	if err != nil {
		return common.PublicKey{}, invalidRequest(field, "invalid %s: %s", field, err)
	}
	return key, nil
}

func invalidRequest(field, format string, args ...any) error {
	return arkerrors.INVALID_REQUEST.New(format, args...).
		WithMetadata(arkerrors.InvalidRequestMetadata{Field: field})
}
