// Package stats derives totals from merged measures. Every function here is
// pure: the same input always yields the same output.
package stats

import (
	"math"
	"sort"
	"strconv"

	"perfpanel/collector"
)

// Stats is the category breakdown of a raw-measure sequence.
type Stats struct {
	TotalEffects          int
	HostEffectsTime       float64
	TotalLifecycleMethods int
	LifecycleTime         float64
	CommitChangesTime     float64
}

// Derive computes the category breakdown. Entries without a recognized
// category are ignored.
func Derive(raw []collector.RawMeasure) Stats {
	var s Stats
	for _, r := range raw {
		switch r.Category() {
		case collector.KindEffect:
			s.TotalEffects++
			s.HostEffectsTime += r.Duration
		case collector.KindLifecycle:
			s.TotalLifecycleMethods++
			s.LifecycleTime += r.Duration
		case collector.KindCommit:
			s.CommitChangesTime += r.Duration
		}
	}
	return s
}

// TotalTime returns the grand total for display. storedTotal is the running
// sum kept by the aggregation store and is authoritative; raw measures are
// already part of the component timings, so they are not added again.
func TotalTime(_ []collector.RawMeasure, storedTotal float64) float64 {
	return round2(storedTotal)
}

// FormatTotal renders a total with two decimals, e.g. "4.00".
func FormatTotal(total float64) string {
	return strconv.FormatFloat(round2(total), 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComponentSummary folds all measures of one component.
type ComponentSummary struct {
	ComponentName    string
	TotalTimeSpent   float64
	PercentTimeSpent float64
	Instances        int
	Mounts           int
	Updates          int
	Unmounts         int
	Renders          int
}

// ByComponent groups measures by component name, sorted by total time
// descending and then by name. Percentages are relative to the sum of all
// measures and are zero when that sum is zero.
func ByComponent(measures []collector.Measure) []ComponentSummary {
	idx := make(map[string]int)
	var out []ComponentSummary
	var grand float64

	for _, m := range measures {
		i, ok := idx[m.ComponentName]
		if !ok {
			i = len(out)
			idx[m.ComponentName] = i
			out = append(out, ComponentSummary{ComponentName: m.ComponentName})
		}
		c := &out[i]
		c.TotalTimeSpent += m.TotalTimeSpent
		c.Instances += m.NumberOfInstances
		c.Mounts += m.Mount.NumberOfTimes
		c.Updates += m.Update.NumberOfTimes
		c.Unmounts += m.Unmount.NumberOfTimes
		c.Renders += m.Render.NumberOfTimes
		grand += m.TotalTimeSpent
	}

	for i := range out {
		if grand > 0 {
			out[i].PercentTimeSpent = round2(out[i].TotalTimeSpent / grand * 100)
		}
		out[i].TotalTimeSpent = round2(out[i].TotalTimeSpent)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].TotalTimeSpent != out[b].TotalTimeSpent {
			return out[a].TotalTimeSpent > out[b].TotalTimeSpent
		}
		return out[a].ComponentName < out[b].ComponentName
	})
	return out
}
