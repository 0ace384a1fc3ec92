package export

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

var ErrShortTrace = errors.New("export: trace needs at least two points")

// Palette colours species paths in order, cycling when there are more species.
var Palette = []string{"#00ccff", "#ffcc00", "#00ff88", "#ff00ff", "#ff4444", "#4488ff"}

// TraceSVG writes concentration against time, one path per species, on shared axes.
func TraceSVG(w io.Writer, trace *reactor.Trace, width, height int) error {
	if len(trace.Times) < 2 {
		return ErrShortTrace
	}

	minX, maxX := trace.Times[0], trace.Times[len(trace.Times)-1]
	minY, maxY := 0.0, 0.0
	for _, series := range trace.Concentrations {
		for _, c := range series {
			minY = min(minY, c)
			maxY = max(maxY, c)
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	// 10% headroom above the highest concentration
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, series := range trace.Concentrations {
		color := Palette[i%len(Palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j, c := range series {
			x := (trace.Times[j] - minX) / rangeX * float64(width)
			y := float64(height) - (c-minY)/rangeY*float64(height)
			if j > 0 {
				sb.WriteString(" L")
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), color, html.EscapeString(trace.Species[i]))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
