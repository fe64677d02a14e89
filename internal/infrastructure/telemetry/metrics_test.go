package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/retailsuite/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())

	// Meters from the disabled provider come from the global no-op provider.
	meter := mp.Meter("test")
	require.NotNil(t, meter)

	assert.NoError(t, mp.Shutdown(context.Background()))
	assert.NoError(t, mp.ForceFlush(context.Background()))
}

func TestCounter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	counter, err := telemetry.NewCounter(meter, "retail_test_total", "test counter", "{item}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Inc(ctx)
	counter.Add(ctx, 5, telemetry.AttrTenantID.String("acme"))
}

func TestHistogram(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "retail_test_duration_seconds",
		Description: "test histogram",
		Unit:        "s",
		Boundaries:  telemetry.SmallDurationBuckets,
	})
	require.NoError(t, err)

	ctx := context.Background()
	histogram.Record(ctx, 0.031)
	histogram.RecordDuration(ctx, 45*time.Millisecond, telemetry.AttrHTTPRoute.String("/api/sales"))
}

func TestHistogram_NoBoundaries(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name: "retail_test_plain",
		Unit: "s",
	})
	require.NoError(t, err)
	histogram.Record(context.Background(), 1)
}

func TestGauges(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	gauge, err := telemetry.NewGauge(meter, "retail_test_gauge", "test gauge", "{item}")
	require.NoError(t, err)
	gauge.Record(context.Background(), 12, telemetry.AttrEventStatus.String("PENDING"))

	floatGauge, err := telemetry.NewFloatGauge(meter, "retail_test_ratio", "test ratio", "1")
	require.NoError(t, err)
	floatGauge.Record(context.Background(), 0.87)
}

func TestDurationBuckets(t *testing.T) {
	// Bucket boundaries must be strictly increasing for the SDK to accept them.
	for name, buckets := range map[string][]float64{
		"http":  telemetry.HTTPDurationBuckets,
		"db":    telemetry.DBDurationBuckets,
		"small": telemetry.SmallDurationBuckets,
	} {
		require.NotEmpty(t, buckets, name)
		for i := 1; i < len(buckets); i++ {
			assert.Greater(t, buckets[i], buckets[i-1], "%s bucket %d", name, i)
		}
	}
}
