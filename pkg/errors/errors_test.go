package errors

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
)

// generateErrorFixtures creates test fixtures with sample metadata for each error type
func generateErrorFixtures() []Error {
	return []Error{
		// INTERNAL_ERROR
		INTERNAL_ERROR.New("internal server error occurred").
			WithMetadata(map[string]any{
				"component": "ledger",
				"operation": "mint",
			}),

		// INVALID_GATEWAY
		INVALID_GATEWAY.New("caller is not the configured gateway").
			WithMetadata(InvalidGatewayMetadata{
				Expected: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
				Got:      "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
			}),

		// NO_TOKENS
		NO_TOKENS.New("holder has no tokens to send").
			WithMetadata(NoTokensMetadata{
				Asset:   "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
				Holder:  "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
				Balance: 0,
			}),

		// MALFORMED_PAYLOAD
		MALFORMED_PAYLOAD.New("payload cannot be decoded").
			WithMetadata(MalformedPayloadMetadata{Reason: "unexpected EOF"}),

		// ALREADY_INITIALIZED
		ALREADY_INITIALIZED.New("bridge already initialized").
			WithMetadata(AlreadyInitializedMetadata{
				Config:    "2Vd3x4pKbQGYpyHz9ZQm4sMGBSZPGa8HMUbjAAYH4uiw",
				Authority: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
			}),

		// NOT_INITIALIZED
		NOT_INITIALIZED.New("bridge not initialized"),

		// MESSAGE_ALREADY_PROCESSED
		MESSAGE_ALREADY_PROCESSED.New("message already processed").
			WithMetadata(MessageAlreadyProcessedMetadata{
				OriginChainID: 7001,
				OriginAddress: "0x735b14bb79463307aacbed86daf3322b1e6226ab",
				Nonce:         42,
				Asset:         "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
			}),

		// EMISSION_FAILED
		EMISSION_FAILED.New("gateway unreachable").
			WithMetadata(EmissionFailedMetadata{
				Asset:              "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
				EmissionID:         "0b0f5f7a-8f55-4a4a-9d3b-5b1fcf3f1d1e",
				DestinationChainID: 5,
			}),

		// INVALID_REQUEST
		INVALID_REQUEST.New("missing destination address").
			WithMetadata(InvalidRequestMetadata{Field: "destination_address"}),

		// ASSET_NOT_FOUND
		ASSET_NOT_FOUND.New("asset not found").
			WithMetadata(AssetNotFoundMetadata{
				Asset: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
			}),

		// UNAUTHENTICATED
		UNAUTHENTICATED.New("invalid request signature").
			WithMetadata(UnauthenticatedMetadata{
				Caller: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
			}),

		// LEDGER_REJECTED
		LEDGER_REJECTED.New("insufficient funds").
			WithMetadata(LedgerRejectedMetadata{Reason: "insufficient funds"}),
	}
}

func TestErrorFixtures(t *testing.T) {
	fixtures := generateErrorFixtures()

	codes := make(map[uint16]struct{})
	for _, err := range fixtures {
		require.NotNil(t, err)
		require.NotEmpty(t, err.Error())
		require.NotEmpty(t, err.CodeName())
		require.Contains(t, err.Error(), err.CodeName())
		require.NotNil(t, err.Log())

		_, duplicated := codes[err.Code()]
		require.False(t, duplicated, "duplicated code %d", err.Code())
		codes[err.Code()] = struct{}{}
	}
}

func TestErrorMetadata(t *testing.T) {
	err := NO_TOKENS.New("no tokens").WithMetadata(NoTokensMetadata{
		Asset:   "asset",
		Holder:  "holder",
		Balance: 0,
	})

	metadata := err.Metadata()
	require.Equal(t, "asset", metadata["asset"])
	require.Equal(t, "holder", metadata["holder"])
	require.Equal(t, "0", metadata["balance"])
	require.Equal(t, grpccodes.FailedPrecondition, err.GrpcCode())
	require.Equal(t, uint16(2), err.Code())
}

func TestErrorMetadataLargeIntegers(t *testing.T) {
	err := MESSAGE_ALREADY_PROCESSED.New("message already processed").
		WithMetadata(MessageAlreadyProcessedMetadata{
			OriginChainID: math.MaxUint64,
			Nonce:         math.MaxUint64 - 1,
		})

	metadata := err.Metadata()
	require.Equal(t, "18446744073709551615", metadata["origin_chain_id"])
	require.Equal(t, "18446744073709551614", metadata["nonce"])
}

func TestErrorWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := EMISSION_FAILED.Wrap(cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "EMISSION_FAILED (7)")

	var structuredErr Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &structuredErr))
	require.Equal(t, "EMISSION_FAILED", structuredErr.CodeName())
}
