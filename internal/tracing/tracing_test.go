package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestInitWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	provider, err := Init(ctx, zaptest.NewLogger(t), Config{}, "test")
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceName, provider.serviceName)

	_, span := provider.Tracer().Start(ctx, "unit")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	_, global := otel.Tracer("other").Start(ctx, "global")
	assert.True(t, global.SpanContext().IsValid())
	global.End()

	require.NoError(t, provider.Shutdown(ctx))
}

func TestInitWithEndpoint(t *testing.T) {
	ctx := context.Background()
	provider, err := Init(ctx, nil, Config{Endpoint: "localhost:4318", ServiceName: "svc", Insecure: true}, "test")
	require.NoError(t, err)
	assert.Equal(t, "svc", provider.serviceName)
}
