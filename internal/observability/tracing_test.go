package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/BearBump/FlightBoard/config"
	"github.com/BearBump/FlightBoard/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, nil, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitTracing_StdoutExport(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, ServiceName: "test"}, &buf, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), config.TracingConfig{}, nil, logger.Nop())
	})

	_, span := Tracer().Start(context.Background(), "board.fetch")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	ShutdownWithTimeout(context.Background(), shutdown, logger.Nop())
	require.Contains(t, buf.String(), "board.fetch")
}
