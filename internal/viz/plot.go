package viz

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

var ErrEmptyTrace = errors.New("viz: trace has no points")

type PlotOptions struct {
	// Species selects the plotted series by name; empty plots every species.
	Species []string
	Height  int
	Width   int
	Caption string
	Theme   Theme
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 10, Width: 80, Theme: ThemeLab}
}

// PlotTrace draws concentration against step index, one coloured series per species.
func PlotTrace(trace *reactor.Trace, opts PlotOptions) (string, error) {
	if len(trace.Times) == 0 {
		return "", ErrEmptyTrace
	}

	names := opts.Species
	if len(names) == 0 {
		names = trace.Species
	}

	series := make([][]float64, 0, len(names))
	for _, name := range names {
		idx := slices.Index(trace.Species, name)
		if idx < 0 {
			return "", fmt.Errorf("viz: unknown species %q", name)
		}
		series = append(series, trace.Concentrations[idx])
	}

	theme := opts.Theme
	if len(theme.Series) == 0 {
		theme = ThemeLab
	}
	caption := opts.Caption
	if caption == "" {
		caption = fmt.Sprintf("concentration, t = 0 .. %g", trace.Times[len(trace.Times)-1])
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(theme.seriesColors(len(series))...),
		asciigraph.SeriesLegends(names...),
	), nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
