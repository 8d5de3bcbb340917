package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joestump/bookswap/internal/telemetry"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := telemetry.Setup(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_Endpoint(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// The exporter connects lazily, so no collector is needed.
	shutdown, err := telemetry.Setup(context.Background(), "http://127.0.0.1:4318")
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "sdk provider installed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutdown has nothing to flush.
	_ = shutdown(ctx)
}
