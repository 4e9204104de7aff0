package errors

import (
	"bytes"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

// Unwrap exposes the cause so that callers can match collaborator errors with errors.Is.
func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type InvalidGatewayMetadata struct {
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

type NoTokensMetadata struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Balance uint64 `json:"balance"`
}

type MalformedPayloadMetadata struct {
	Reason string `json:"reason"`
}

type AlreadyInitializedMetadata struct {
	Config    string `json:"config"`
	Authority string `json:"authority"`
}

type MessageAlreadyProcessedMetadata struct {
	OriginChainID uint64 `json:"origin_chain_id"`
	OriginAddress string `json:"origin_address"`
	Nonce         uint64 `json:"nonce"`
	Asset         string `json:"asset"`
}

type EmissionFailedMetadata struct {
	Asset              string `json:"asset"`
	EmissionID         string `json:"emission_id"`
	DestinationChainID uint64 `json:"destination_chain_id"`
}

type InvalidRequestMetadata struct {
	Field string `json:"field"`
}

type AssetNotFoundMetadata struct {
	Asset string `json:"asset"`
}

type UnauthenticatedMetadata struct {
	Caller string `json:"caller"`
}

type LedgerRejectedMetadata struct {
	Reason string `json:"reason"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}

var INVALID_GATEWAY = Code[InvalidGatewayMetadata]{
	1,
	"INVALID_GATEWAY",
	grpccodes.PermissionDenied,
}
var NO_TOKENS = Code[NoTokensMetadata]{2, "NO_TOKENS", grpccodes.FailedPrecondition}

var MALFORMED_PAYLOAD = Code[MalformedPayloadMetadata]{
	3,
	"MALFORMED_PAYLOAD",
	grpccodes.InvalidArgument,
}

var ALREADY_INITIALIZED = Code[AlreadyInitializedMetadata]{
	4,
	"ALREADY_INITIALIZED",
	grpccodes.AlreadyExists,
}
var NOT_INITIALIZED = Code[any]{5, "NOT_INITIALIZED", grpccodes.FailedPrecondition}

var MESSAGE_ALREADY_PROCESSED = Code[MessageAlreadyProcessedMetadata]{
	6,
	"MESSAGE_ALREADY_PROCESSED",
	grpccodes.AlreadyExists,
}
var EMISSION_FAILED = Code[EmissionFailedMetadata]{7, "EMISSION_FAILED", grpccodes.Unavailable}

var INVALID_REQUEST = Code[InvalidRequestMetadata]{
	8,
	"INVALID_REQUEST",
	grpccodes.InvalidArgument,
}
var ASSET_NOT_FOUND = Code[AssetNotFoundMetadata]{9, "ASSET_NOT_FOUND", grpccodes.NotFound}

var UNAUTHENTICATED = Code[UnauthenticatedMetadata]{
	10,
	"UNAUTHENTICATED",
	grpccodes.Unauthenticated,
}

var LEDGER_REJECTED = Code[LedgerRejectedMetadata]{
	11,
	"LEDGER_REJECTED",
	grpccodes.FailedPrecondition,
}
