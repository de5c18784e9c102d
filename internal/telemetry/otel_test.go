package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review/internal/config"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// non-routable address; nothing is exported because no span is recorded
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test", Endpoint: "http://192.0.2.1:4318"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
