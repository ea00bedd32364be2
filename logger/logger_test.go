package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("debug", &buf)
	require.NoError(t, err)

	l.Component("poller").Info("polling started", zap.Int("interval_ms", 2000))
	Flush(l.Logger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "poller", entry["logger"])
	assert.Equal(t, "polling started", entry["msg"])
	assert.Contains(t, entry, "ts")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)
	l.Logger.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestInvalidLevel(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)
}

func TestContextCarrier(t *testing.T) {
	var buf bytes.Buffer
	fallback, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	assert.Same(t, fallback.Logger, FromContext(context.Background(), fallback.Logger))

	tagged := fallback.Logger.With(zap.String("epoch", "e1"))
	ctx := WithContext(context.Background(), tagged)
	assert.Same(t, tagged, FromContext(ctx, fallback.Logger))
}
