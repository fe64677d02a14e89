package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func newTestDBMetrics(t *testing.T, cfg DBMetricsConfig) *DBMetrics {
	t.Helper()

	metrics, err := NewDBMetrics(noop.NewMeterProvider().Meter("test"), cfg, zap.NewNop())
	require.NoError(t, err)
	return metrics
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics_AppliesDefaults(t *testing.T) {
	metrics := newTestDBMetrics(t, DBMetricsConfig{Enabled: true})

	assert.Equal(t, 200*time.Millisecond, metrics.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, metrics.config.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	metrics := newTestDBMetrics(t, DefaultDBMetricsConfig())

	ctx := context.Background()

	// The noop meter discards values; these exercise the label paths.
	metrics.RecordQuery(ctx, "select", "sales", 5*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "", "sales", 5*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "INSERT", "", 300*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "UPDATE", "customers", 300*time.Millisecond, assert.AnError)
}

func TestDBMetrics_PoolStatsCollection(t *testing.T) {
	metrics := newTestDBMetrics(t, DBMetricsConfig{
		Enabled:           true,
		PoolStatsInterval: 10 * time.Millisecond,
	})

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	metrics.SetSQLDB(mockDB)
	metrics.StartPoolStatsCollection(context.Background())

	time.Sleep(30 * time.Millisecond)

	metrics.Stop()
	metrics.Stop()
}

func TestDBMetrics_PoolStatsCollection_WithoutDB(t *testing.T) {
	metrics := newTestDBMetrics(t, DefaultDBMetricsConfig())

	// Without a sql.DB the collector refuses to start; Stop must still work.
	metrics.StartPoolStatsCollection(context.Background())
	metrics.Stop()
}

func TestDBMetricsPlugin_Initialize(t *testing.T) {
	db := setupTestDB(t)
	metrics := newTestDBMetrics(t, DefaultDBMetricsConfig())

	plugin := NewDBMetricsPlugin(metrics, zap.NewNop())
	assert.Equal(t, "db_metrics", plugin.Name())

	require.NoError(t, db.Use(plugin))

	// All operation types must keep working with the callbacks attached.
	require.NoError(t, db.Create(&TestSale{Number: "S-000010"}).Error)

	var sale TestSale
	require.NoError(t, db.First(&sale).Error)

	require.NoError(t, db.Model(&sale).Update("number", "S-000011").Error)
	require.NoError(t, db.Delete(&sale).Error)

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM test_sales").Scan(&count).Error)
	assert.Zero(t, count)
}

func TestDetectOperationType(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT * FROM sales", "SELECT"},
		{"  select id from sales", "SELECT"},
		{"INSERT INTO sales VALUES (1)", "INSERT"},
		{"update sales set number = 'S-1'", "UPDATE"},
		{"DELETE FROM sales", "DELETE"},
		{"PRAGMA table_info(sales)", "OTHER"},
		{"", "OTHER"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, detectOperationType(tt.sql), "sql %q", tt.sql)
	}
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := setupTestDB(t)

	metrics, err := RegisterDBMetrics(db, nil, DBMetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestRegisterDBMetrics_MeterProviderUnavailable(t *testing.T) {
	db := setupTestDB(t)

	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	metrics, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, metrics)
}
