package presenter

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"perfpanel/collector"
	"perfpanel/stats"
)

// Chart is the description handed to the chart widget. Values line up with
// Labels: total time, commit changes, host effects, lifecycle methods.
type Chart struct {
	Labels []string
	Values []float64
}

// ChartRenderer is the external widget that draws a Chart.
type ChartRenderer interface {
	Render(Chart) error
}

// ViewModel is the read-only state the presentational layer is built from.
type ViewModel struct {
	PerfData      []collector.Measure
	TotalTime     string
	PendingEvents int
	RawMeasures   []collector.RawMeasure
	Loading       bool
	HasError      bool
	ShowChart     bool

	Stats      stats.Stats
	Components []stats.ComponentSummary
}

// Input is the aggregated state the adapter translates. It is produced by
// the poll scheduler after every change.
type Input struct {
	Measures      []collector.Measure
	RawMeasures   []collector.RawMeasure
	TotalTime     float64
	Stats         stats.Stats
	PendingEvents int
	Loading       bool
	HasError      bool
}

// BuildChart returns the chart for a total and its breakdown.
func BuildChart(totalTime float64, s stats.Stats) Chart {
	return Chart{
		Labels: []string{
			"Total time",
			"Committing changes",
			fmt.Sprintf("Host effects (%d %s)", s.TotalEffects, plural(s.TotalEffects, "effect", "effects")),
			fmt.Sprintf("Lifecycle hooks (%d %s)", s.TotalLifecycleMethods, plural(s.TotalLifecycleMethods, "method", "methods")),
		},
		Values: []float64{totalTime, s.CommitChangesTime, s.HostEffectsTime, s.LifecycleTime},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Adapter turns scheduler output into a ViewModel and feeds the chart.
type Adapter struct {
	renderer ChartRenderer
	log      *zap.Logger

	mu        sync.Mutex
	showChart bool
	last      ViewModel
}

// NewAdapter creates an adapter. renderer may be nil when no chart widget
// is attached.
func NewAdapter(renderer ChartRenderer, showChart bool, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{renderer: renderer, showChart: showChart, log: log}
}

// ToggleChart flips chart visibility and returns the new value.
func (a *Adapter) ToggleChart() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showChart = !a.showChart
	a.last.ShowChart = a.showChart
	return a.showChart
}

// View returns the last presented view model.
func (a *Adapter) View() ViewModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Present builds the view model for in and, when the chart is visible and
// there is data, renders the chart. A renderer failure is logged and does
// not affect the view model.
func (a *Adapter) Present(in Input) ViewModel {
	a.mu.Lock()
	show := a.showChart
	a.mu.Unlock()

	vm := ViewModel{
		PerfData:      in.Measures,
		TotalTime:     stats.FormatTotal(in.TotalTime),
		PendingEvents: in.PendingEvents,
		RawMeasures:   in.RawMeasures,
		Loading:       in.Loading,
		HasError:      in.HasError,
		ShowChart:     show,
		Stats:         in.Stats,
		Components:    stats.ByComponent(in.Measures),
	}

	if show && a.renderer != nil && len(in.Measures) > 0 {
		if err := a.renderer.Render(BuildChart(in.TotalTime, in.Stats)); err != nil {
			a.log.Warn("chart render failed", zap.Error(err))
		}
	}

	a.mu.Lock()
	a.last = vm
	a.mu.Unlock()
	return vm
}
