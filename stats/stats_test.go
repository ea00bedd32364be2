package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpanel/collector"
)

func TestDeriveCategories(t *testing.T) {
	raw := []collector.RawMeasure{
		{Kind: collector.KindEffect, Duration: 2},
		{Kind: collector.KindEffect, Duration: 3},
		{Kind: collector.KindLifecycle, Duration: 1},
	}

	got := Derive(raw)
	assert.Equal(t, Stats{
		TotalEffects:          2,
		HostEffectsTime:       5,
		TotalLifecycleMethods: 1,
		LifecycleTime:         1,
		CommitChangesTime:     0,
	}, got)
}

func TestDeriveEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Derive(nil))
	assert.Equal(t, Stats{}, Derive([]collector.RawMeasure{}))
}

func TestDeriveIsDeterministic(t *testing.T) {
	raw := []collector.RawMeasure{
		{Name: "⚛ (Committing Changes)", Duration: 0.1},
		{Name: "⚛ (Committing Host Effects: 4 Total)", Duration: 0.2},
		{Name: "⚛ (Calling Lifecycle Methods: 1 Total)", Duration: 0.3},
		{Name: "⚛ App [update]", Duration: 7},
		{Kind: collector.KindCommit, Duration: 0.7},
	}
	first := Derive(raw)
	second := Derive(raw)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.TotalEffects)
	assert.Equal(t, 1, first.TotalLifecycleMethods)
	assert.InDelta(t, 0.8, first.CommitChangesTime, 1e-9)
}

func TestTotalTimeUsesStoredTotal(t *testing.T) {
	raw := []collector.RawMeasure{{Kind: collector.KindCommit, Duration: 100}}
	assert.Equal(t, 4.0, TotalTime(raw, 4))
	assert.Equal(t, 1.23, TotalTime(nil, 1.2345))
	assert.Equal(t, "4.00", FormatTotal(TotalTime(nil, 1.5+2.5+0)))
	assert.Equal(t, "0.00", FormatTotal(0))
}

func TestByComponent(t *testing.T) {
	measures := []collector.Measure{
		{ComponentName: "Row", TotalTimeSpent: 1, NumberOfInstances: 2, Update: collector.PhaseTiming{NumberOfTimes: 3}},
		{ComponentName: "App", TotalTimeSpent: 2, NumberOfInstances: 1, Mount: collector.PhaseTiming{NumberOfTimes: 1}},
		{ComponentName: "Row", TotalTimeSpent: 1, NumberOfInstances: 2, Update: collector.PhaseTiming{NumberOfTimes: 1}},
		{ComponentName: "Cell", TotalTimeSpent: 0},
	}

	got := ByComponent(measures)
	require.Len(t, got, 3)
	assert.Equal(t, "App", got[0].ComponentName)
	assert.Equal(t, "Row", got[1].ComponentName)
	assert.Equal(t, 4, got[1].Instances)
	assert.Equal(t, 4, got[1].Updates)
	assert.Equal(t, 50.0, got[1].PercentTimeSpent)
	assert.Equal(t, "Cell", got[2].ComponentName)
	assert.Zero(t, got[2].PercentTimeSpent)

	assert.Empty(t, ByComponent(nil))
}
