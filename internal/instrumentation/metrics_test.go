package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func sumCounter(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAttempt(ctx, "streamable", OutcomeFailure, 5*time.Millisecond)
	m.RecordAttempt(ctx, "sse", OutcomeSuccess, 2*time.Millisecond)
	m.RecordAuthorizationStarted(ctx)
	m.RecordCallback(ctx, OutcomeDenied)

	assert.EqualValues(t, 2, sumCounter(t, reader, "mcp.negotiation.attempts"))
	assert.EqualValues(t, 1, sumCounter(t, reader, "oauth.authorization.started"))
	assert.EqualValues(t, 1, sumCounter(t, reader, "oauth.callback.processed"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAttempt(context.Background(), "sse", OutcomeSuccess, time.Second)
		m.RecordCallback(context.Background(), OutcomeSuccess)
		m.RecordAuthorizationStarted(context.Background())
	})
	assert.NotNil(t, Default())
}
