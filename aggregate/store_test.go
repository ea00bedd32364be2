package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpanel/collector"
)

func measures(times ...float64) []collector.Measure {
	out := make([]collector.Measure, len(times))
	for i, t := range times {
		out[i] = collector.Measure{ComponentName: "C", TotalTimeSpent: t}
	}
	return out
}

func TestMergeIsAdditive(t *testing.T) {
	s := New()
	batches := [][]collector.Measure{measures(1), measures(), measures(2, 3, 4), measures(0.5, 0.5)}

	want := 0
	for _, b := range batches {
		want += len(b)
		got := s.Merge(b, nil)
		assert.Equal(t, want, got)
		assert.Equal(t, want, s.Len())
	}
	assert.Equal(t, len(batches), s.Merges())
	assert.InDelta(t, 11.0, s.TotalTime(), 1e-9)
}

func TestMergePreservesOrder(t *testing.T) {
	s := New()
	s.Merge([]collector.Measure{{ComponentName: "A"}, {ComponentName: "B"}}, nil)
	s.Merge([]collector.Measure{{ComponentName: "C"}}, []collector.RawMeasure{{Kind: collector.KindCommit, Duration: 1}})

	names := []string{}
	for _, m := range s.Measures() {
		names = append(names, m.ComponentName)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Len(t, s.RawMeasures(), 1)
}

func TestMeasuresReturnsCopy(t *testing.T) {
	s := New()
	s.Merge(measures(1), nil)

	got := s.Measures()
	got[0].TotalTimeSpent = 99
	assert.Equal(t, 1.0, s.Measures()[0].TotalTimeSpent)
}

func TestClearAlwaysEmpties(t *testing.T) {
	s := New()
	s.Clear()
	assert.Zero(t, s.Len())

	s.Merge(measures(1.5, 2.5), []collector.RawMeasure{{Kind: collector.KindEffect}})
	s.Clear()
	require.Zero(t, s.Len())
	assert.Zero(t, s.TotalTime())
	assert.Zero(t, s.Merges())
	assert.Empty(t, s.RawMeasures())

	assert.Equal(t, 1, s.Merge(measures(1), nil))
}
