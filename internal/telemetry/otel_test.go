package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitOtelSDKWithoutCollector(t *testing.T) {
	shutdown, err := InitOtelSDK(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
