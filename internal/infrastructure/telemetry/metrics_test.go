package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/factuurdesk/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "test-service"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestRenderMetrics_RecordRender(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics, err := telemetry.NewRenderMetrics(provider.Meter("test"))
	require.NoError(t, err)

	metrics.RecordRender(ctx, "preview", "ready", 120*time.Millisecond, 40_000)
	metrics.RecordRender(ctx, "preview", "failed", 10*time.Millisecond, 0)
	metrics.RecordRender(ctx, "download", "ready", 200*time.Millisecond, 80_000)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	outcomes, ok := byName["document.render.outcomes"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range outcomes.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, outcomes.DataPoints, 3)

	sizes, ok := byName["document.render.size"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var count uint64
	for _, dp := range sizes.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count, "failed renders record no size")
}

func TestRenderMetrics_NilIsNoop(t *testing.T) {
	var metrics *telemetry.RenderMetrics
	assert.NotPanics(t, func() {
		metrics.RecordRender(context.Background(), "preview", "ready", time.Second, 1)
	})
}
