package disruptor

import (
	"testing"

	"github.com/creastat/disruptor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("disruptor_test_defaults")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DISRUPTOR_BUFFER_SIZE", "64")
	t.Setenv("DISRUPTOR_WAIT_STRATEGY", "yielding")
	t.Setenv("DISRUPTOR_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("disruptor")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.BufferSize)
	assert.Equal(t, "yielding", cfg.WaitStrategy)
	assert.Equal(t, "debug", cfg.LogLevel)

	d, err := NewFromConfig(newTestEvent, cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, 64, d.BufferSize())
	assert.IsType(t, &core.YieldingWaitStrategy{}, d.RingBuffer().WaitStrategy())
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	t.Setenv("DISRUPTOR_BUFFER_SIZE", "lots")

	_, err := LoadConfig("disruptor")
	assert.Error(t, err)
}

func TestNewFromConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WaitStrategy = "lazy"
	_, err := NewFromConfig(newTestEvent, cfg, WithLogger(testLogger()))
	assert.ErrorIs(t, err, core.ErrUnknownWaitStrategy)

	cfg = DefaultConfig()
	cfg.BufferSize = 100
	_, err = NewFromConfig(newTestEvent, cfg, WithLogger(testLogger()))
	assert.ErrorIs(t, err, core.ErrInvalidBufferSize)
}

func TestNewFromConfigOptionsOverride(t *testing.T) {
	d, err := NewFromConfig(newTestEvent, DefaultConfig(),
		WithLogger(testLogger()),
		WithWaitStrategy(core.BusySpinWaitStrategy{}))
	require.NoError(t, err)
	assert.IsType(t, core.BusySpinWaitStrategy{}, d.RingBuffer().WaitStrategy())
}
