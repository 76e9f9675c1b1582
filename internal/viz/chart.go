package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"
)

// TimingChart plots per-tick durations in milliseconds with a summary
// caption.
func TimingChart(ms []float64, width, height int) string {
	if len(ms) == 0 {
		return Subtle.Render("no ticks recorded")
	}
	mean, std := ms[0], 0.0
	if len(ms) > 1 {
		mean, std = stat.MeanStdDev(ms, nil)
	}
	caption := fmt.Sprintf("tick ms  mean %.3f  std %.3f  n %d", mean, std, len(ms))
	return asciigraph.Plot(ms,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Profile plots a density row profile (mass per image row).
func Profile(rows []float64, width, height int) string {
	if len(rows) == 0 {
		return Subtle.Render("empty profile")
	}
	return asciigraph.Plot(rows,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("density per row"),
	)
}
