package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutExporters(t *testing.T) {
	cleanup := SetupForTesting(t, "telemetry-test")
	defer cleanup()

	// Setting up twice for the same service is a no-op.
	cleanup2 := SetupForTesting(t, "telemetry-test")
	cleanup2()

	tracer := otel.Tracer("telemetry-test")
	_, span := tracer.Start(context.Background(), "noop")
	span.End()
}

func TestSetupShutdown(t *testing.T) {
	tel, err := Setup(context.Background(), "telemetry-shutdown-test", Config{})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
