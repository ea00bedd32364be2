package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.EvalTimeout)
	assert.Equal(t, ":memory:", cfg.JournalDSN)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ReloadOnEmpty)
	assert.True(t, cfg.ShowChart)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PERFPANEL_POLLINTERVAL", "250ms")
	t.Setenv("PERFPANEL_BUFFERPATH", "/tmp/buffer.yaml")
	t.Setenv("PERFPANEL_RELOADONEMPTY", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/tmp/buffer.yaml", cfg.BufferPath)
	assert.False(t, cfg.ReloadOnEmpty)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	chdir(t, t.TempDir())
	v := viper.New()
	v.Set("PollInterval", "0s")

	_, err := load(v)
	assert.ErrorContains(t, err, "PollInterval")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
