package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"perfpanel/stats"
)

const (
	panelWidth    = 64
	barWidth      = 30
	maxComponents = 10

	colorTitle = "#10B981"
	colorLabel = "#D1D5DB"
	colorValue = "#FFFFFF"
	colorBar   = "#60A5FA"
	colorError = "#EF4444"
)

// TextRenderer draws charts and summaries on a terminal.
type TextRenderer struct {
	W io.Writer
}

// Render implements ChartRenderer with one horizontal bar per value, scaled
// to the largest value.
func (t *TextRenderer) Render(c Chart) error {
	_, err := fmt.Fprintln(t.W, renderChart(c))
	return err
}

func renderChart(c Chart) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel)).Width(32)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorBar))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorValue)).Bold(true)

	var maxVal float64
	for _, v := range c.Values {
		if v > maxVal {
			maxVal = v
		}
	}

	lines := make([]string, 0, len(c.Labels))
	for i, label := range c.Labels {
		var v float64
		if i < len(c.Values) {
			v = c.Values[i]
		}
		n := 0
		if maxVal > 0 {
			n = int(v / maxVal * barWidth)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			labelStyle.Render(label),
			barStyle.Render(strings.Repeat("█", n)),
			valueStyle.Render(stats.FormatTotal(v)+" ms"),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// WriteSummary writes the panel: totals, the category breakdown and the
// most expensive components, or the error state.
func WriteSummary(w io.Writer, vm ViewModel) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorValue)).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)

	var lines []string
	switch {
	case vm.HasError:
		lines = []string{
			errorStyle.Render("An error occurred while collecting the measures."),
			labelStyle.Render("Make sure the application is instrumented and reload it."),
		}
	case vm.Loading:
		lines = []string{labelStyle.Render("Collecting measures...")}
	default:
		lines = []string{
			titleStyle.Render("Performance"),
			"",
			fmt.Sprintf("%s %s", labelStyle.Render("Total time:       "), valueStyle.Render(vm.TotalTime+" ms")),
			fmt.Sprintf("%s %s", labelStyle.Render("Pending events:   "), valueStyle.Render(fmt.Sprint(vm.PendingEvents))),
			fmt.Sprintf("%s %s", labelStyle.Render("Components:       "), valueStyle.Render(fmt.Sprint(len(vm.Components)))),
			fmt.Sprintf("%s %s", labelStyle.Render("Commit changes:   "), valueStyle.Render(stats.FormatTotal(vm.Stats.CommitChangesTime)+" ms")),
			fmt.Sprintf("%s %s", labelStyle.Render("Host effects:     "), valueStyle.Render(fmt.Sprintf("%s ms (%d)", stats.FormatTotal(vm.Stats.HostEffectsTime), vm.Stats.TotalEffects))),
			fmt.Sprintf("%s %s", labelStyle.Render("Lifecycle methods:"), valueStyle.Render(fmt.Sprintf("%s ms (%d)", stats.FormatTotal(vm.Stats.LifecycleTime), vm.Stats.TotalLifecycleMethods))),
		}
		if len(vm.Components) > 0 {
			lines = append(lines, "", titleStyle.Render("Components"))
		}
		for i, c := range vm.Components {
			if i == maxComponents {
				break
			}
			lines = append(lines, fmt.Sprintf("%s %s",
				labelStyle.Render(fmt.Sprintf("%-28s", c.ComponentName)),
				valueStyle.Render(fmt.Sprintf("%8s ms %6.2f%%", stats.FormatTotal(c.TotalTimeSpent), c.PercentTimeSpent)),
			))
		}
	}

	out := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(panelWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	_, err := fmt.Fprintln(w, out)
	return err
}
