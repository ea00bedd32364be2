package presenter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpanel/collector"
	"perfpanel/stats"
)

type recordingRenderer struct {
	charts []Chart
	err    error
}

func (r *recordingRenderer) Render(c Chart) error {
	r.charts = append(r.charts, c)
	return r.err
}

func TestBuildChartPluralizes(t *testing.T) {
	c := BuildChart(4, stats.Stats{TotalEffects: 1, HostEffectsTime: 2, TotalLifecycleMethods: 3, LifecycleTime: 1, CommitChangesTime: 0.5})
	assert.Equal(t, []float64{4, 0.5, 2, 1}, c.Values)
	assert.Equal(t, "Host effects (1 effect)", c.Labels[2])
	assert.Equal(t, "Lifecycle hooks (3 methods)", c.Labels[3])

	c = BuildChart(0, stats.Stats{})
	assert.Equal(t, "Host effects (0 effects)", c.Labels[2])
	assert.Equal(t, "Lifecycle hooks (0 methods)", c.Labels[3])
}

func TestPresentBuildsViewModel(t *testing.T) {
	r := &recordingRenderer{}
	a := NewAdapter(r, true, nil)
	in := Input{
		Measures:      []collector.Measure{{ComponentName: "A", TotalTimeSpent: 1.5}, {ComponentName: "B", TotalTimeSpent: 2.5}},
		TotalTime:     4,
		PendingEvents: 2,
		Stats:         stats.Stats{TotalEffects: 2, HostEffectsTime: 5},
	}

	vm := a.Present(in)
	assert.Equal(t, "4.00", vm.TotalTime)
	assert.Equal(t, 2, vm.PendingEvents)
	assert.True(t, vm.ShowChart)
	assert.False(t, vm.HasError)
	require.Len(t, vm.Components, 2)
	assert.Equal(t, "B", vm.Components[0].ComponentName)
	require.Len(t, r.charts, 1)
	assert.Equal(t, 4.0, r.charts[0].Values[0])
	assert.Equal(t, vm, a.View())
}

func TestPresentSkipsChartWhenHiddenOrEmpty(t *testing.T) {
	r := &recordingRenderer{}
	a := NewAdapter(r, true, nil)
	a.Present(Input{})
	assert.Empty(t, r.charts)

	assert.False(t, a.ToggleChart())
	vm := a.Present(Input{Measures: []collector.Measure{{ComponentName: "A"}}})
	assert.False(t, vm.ShowChart)
	assert.Empty(t, r.charts)
}

func TestPresentSurvivesRendererError(t *testing.T) {
	a := NewAdapter(&recordingRenderer{err: errors.New("canvas gone")}, true, nil)
	vm := a.Present(Input{Measures: []collector.Measure{{ComponentName: "A", TotalTimeSpent: 1}}, TotalTime: 1})
	assert.Equal(t, "1.00", vm.TotalTime)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := &TextRenderer{W: &buf}
	require.NoError(t, r.Render(BuildChart(4, stats.Stats{CommitChangesTime: 2})))
	assert.Contains(t, buf.String(), "Total time")
	assert.Contains(t, buf.String(), "4.00 ms")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, ViewModel{
		TotalTime:  "4.00",
		Components: []stats.ComponentSummary{{ComponentName: "App", TotalTimeSpent: 4, PercentTimeSpent: 100}},
	}))
	assert.Contains(t, buf.String(), "App")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, ViewModel{HasError: true}))
	assert.Contains(t, buf.String(), "error occurred")
}
