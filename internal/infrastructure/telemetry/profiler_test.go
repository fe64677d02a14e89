package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresServerAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ApplicationName: "retailsuite-backend",
	}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
}

func TestNewProfiler_RequiresApplicationName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://pyroscope:4040",
	}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestProfilerConfig_ProfileTypes(t *testing.T) {
	t.Run("none enabled", func(t *testing.T) {
		assert.Empty(t, ProfilerConfig{}.profileTypes())
	})

	t.Run("cpu only", func(t *testing.T) {
		types := ProfilerConfig{ProfileCPU: true}.profileTypes()
		assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU}, types)
	})

	t.Run("standard set", func(t *testing.T) {
		cfg := ProfilerConfig{
			ProfileCPU:          true,
			ProfileAllocObjects: true,
			ProfileAllocSpace:   true,
			ProfileInuseObjects: true,
			ProfileInuseSpace:   true,
			ProfileGoroutines:   true,
		}
		assert.Len(t, cfg.profileTypes(), 6)
	})

	t.Run("all enabled", func(t *testing.T) {
		cfg := ProfilerConfig{
			ProfileCPU:           true,
			ProfileAllocObjects:  true,
			ProfileAllocSpace:    true,
			ProfileInuseObjects:  true,
			ProfileInuseSpace:    true,
			ProfileGoroutines:    true,
			ProfileMutexCount:    true,
			ProfileMutexDuration: true,
			ProfileBlockCount:    true,
			ProfileBlockDuration: true,
		}
		assert.Len(t, cfg.profileTypes(), 10)
	})
}

func TestPyroscopeLogger(t *testing.T) {
	logger := newPyroscopeLogger(zap.NewNop())
	require.NotNil(t, logger)

	// The adapter must accept fmt-style calls without panicking.
	logger.Infof("started in %dms", 42)
	logger.Debugf("scraping %s", "goroutines")
	logger.Errorf("upload failed: %v", assert.AnError)
}
