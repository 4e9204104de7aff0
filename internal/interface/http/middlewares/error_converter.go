package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// HandlerFunc is an http handler that reports failures by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type ErrorResponse struct {
	Code     uint16            `json:"code"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ErrorConverter turns the error returned by h into a JSON error response. Typed errors keep
// their code and metadata, ledger errors map to 409 or 422, anything else becomes an internal
// error.
func ErrorConverter(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, r, err)
		}
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, structuredErr := convert(err)

	if status >= http.StatusInternalServerError {
		structuredErr.Log().WithContext(r.Context()).WithError(err).
			WithField("path", r.URL.Path).Error("request failed")
	} else {
		log.WithError(err).WithField("path", r.URL.Path).Debug("request rejected")
	}

	WriteJSON(w, status, ErrorResponse{
		Code:     structuredErr.Code(),
		Name:     structuredErr.CodeName(),
		Message:  structuredErr.Error(),
		Metadata: structuredErr.Metadata(),
	})
}

func convert(err error) (int, arkerrors.Error) {
	var structuredErr arkerrors.Error
	if errors.As(err, &structuredErr) {
		return runtime.HTTPStatusFromCode(structuredErr.GrpcCode()), structuredErr
	}

	for _, sentinel := range []error{ports.ErrAccountAlreadyExists, ports.ErrMetadataExists} {
		if errors.Is(err, sentinel) {
			return http.StatusConflict, ledgerRejected(err, sentinel)
		}
	}
	for _, sentinel := range []error{
		ports.ErrInsufficientFunds, ports.ErrInvalidAuthority,
		ports.ErrMintNotFound, ports.ErrMetadataNotFound,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusUnprocessableEntity, ledgerRejected(err, sentinel)
		}
	}

	return http.StatusInternalServerError, somethingWentWrong
}

func ledgerRejected(err, sentinel error) arkerrors.Error {
	return arkerrors.LEDGER_REJECTED.Wrap(err).
		WithMetadata(arkerrors.LedgerRejectedMetadata{Reason: sentinel.Error()})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}
