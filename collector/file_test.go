package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonBuffer = `{
  "length": 2,
  "measures": [
    {"componentName": "App", "totalTimeSpent": 1.5, "mount": {"numberOfTimes": 1, "totalTimeSpentMs": 1.5}},
    {"componentName": "Row", "totalTimeSpent": 2.5}
  ],
  "rawMeasures": [{"name": "⚛ (Committing Changes)", "duration": 0.75}]
}`

const yamlBuffer = `
length: 2
measures:
  - componentName: App
    totalTimeSpent: 1.5
    mount:
      numberOfTimes: 1
      totalTimeSpentMs: 1.5
  - componentName: Row
    totalTimeSpent: 2.5
rawMeasures:
  - name: "⚛ (Committing Changes)"
    duration: 0.75
`

func TestFileEvaluatorDecodesJSONAndYAML(t *testing.T) {
	for name, body := range map[string]string{"buffer.json": jsonBuffer, "buffer.yaml": yamlBuffer} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			ch := NewChannel(NewFileEvaluator(path, nil), 0, nil)

			n, err := ch.Length(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			batch, err := ch.Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, batch.Measures, 2)
			assert.Equal(t, 1, batch.Measures[0].Mount.NumberOfTimes)
			require.Len(t, batch.RawMeasures, 1)
			assert.Equal(t, KindCommit, batch.RawMeasures[0].Category())
		})
	}
}

func TestFileEvaluatorClearAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.json")
	ev := NewFileEvaluator(path, nil)
	ch := NewChannel(ev, 0, nil)

	_, err := ch.Length(context.Background())
	assert.ErrorIs(t, err, ErrChannelUnavailable)

	require.NoError(t, ev.Reload(context.Background()))
	n, err := ch.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, os.WriteFile(path, []byte(jsonBuffer), 0o644))
	require.NoError(t, ch.Clear(context.Background()))
	batch, err := ch.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Measures)
	assert.Empty(t, batch.RawMeasures)
}

func TestFileEvaluatorMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.json")
	require.NoError(t, os.WriteFile(path, []byte("length: [unterminated"), 0o644))

	_, err := NewChannel(NewFileEvaluator(path, nil), 0, nil).Length(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResult)
	assert.NotErrorIs(t, err, ErrChannelUnavailable, "a readable but undecodable buffer is not a transport failure")
}
