package viz

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

// ReportPrinter renders detector state reports as panels on a writer.
type ReportPrinter struct {
	w        io.Writer
	theme    Theme
	concUnit string
	timeUnit string
	printed  int
}

func NewReportPrinter(w io.Writer, theme Theme, concUnit, timeUnit string) *ReportPrinter {
	return &ReportPrinter{w: w, theme: theme, concUnit: concUnit, timeUnit: timeUnit}
}

// Report implements reactor.Reporter.
func (p *ReportPrinter) Report(r reactor.StateReport) {
	p.printed++
	fmt.Fprintln(p.w, RenderReport(r, p.theme, p.concUnit, p.timeUnit))
}

// Printed is the number of reports written so far.
func (p *ReportPrinter) Printed() int { return p.printed }

func RenderReport(r reactor.StateReport, theme Theme, concUnit, timeUnit string) string {
	st := newStyles(theme)

	var b strings.Builder
	header := fmt.Sprintf("step %d  t=%.4f %s", r.Step, r.Time, timeUnit)
	b.WriteString(st.title.Render(header))
	if r.Quenched {
		b.WriteString("  " + st.quenched.Render("QUENCHED"))
	}
	b.WriteString("\n")

	for i, name := range r.Species {
		value := fmt.Sprintf("%.6g %s", r.Concentrations[i], concUnit)
		b.WriteString(st.label.Render(name) + st.value.Render(value) + "\n")
	}
	for i, k := range r.RateConstants {
		b.WriteString(st.label.Render("k"+strconv.Itoa(i+1)) + st.value.Render(fmt.Sprintf("%g", k)) + "\n")
	}

	fired := make([]string, len(r.Fired))
	for i, idx := range r.Fired {
		fired[i] = strconv.Itoa(idx + 1)
	}
	b.WriteString(st.hint.Render("detectors fired: " + strings.Join(fired, ", ")))

	return st.panel.Render(b.String())
}

// RenderCSTR renders a steady-state summary.
func RenderCSTR(res *reactor.CSTRResult, theme Theme, concUnit string) string {
	st := newStyles(theme)

	var b strings.Builder
	status := st.running.Render("converged")
	if !res.Converged {
		status = st.paused.Render("not converged")
	}
	b.WriteString(st.title.Render("cstr steady state") + "  " + status + "\n")
	b.WriteString(st.label.Render("iterations") + st.value.Render(strconv.Itoa(res.Iterations)) + "\n")
	b.WriteString(st.label.Render("micro-steps") + st.value.Render(strconv.Itoa(res.MicroSteps)) + "\n")
	b.WriteString(st.label.Render("score") + st.value.Render(fmt.Sprintf("%.3e", res.Score)) + "\n")
	for i, name := range res.Species {
		b.WriteString(st.label.Render(name) + st.value.Render(fmt.Sprintf("%.6g %s", res.Outflow[i], concUnit)) + "\n")
	}
	return st.panel.Render(strings.TrimSuffix(b.String(), "\n"))
}

// RenderTrace renders the outcome of a batch run: final concentrations, record times and
// metrics.
func RenderTrace(trace *reactor.Trace, theme Theme, concUnit, timeUnit string) string {
	st := newStyles(theme)

	var b strings.Builder
	status := st.running.Render("expired")
	if !trace.Expired {
		status = st.quenched.Render("quenched")
	}
	end := 0.0
	if len(trace.Times) > 0 {
		end = trace.Times[len(trace.Times)-1]
	}
	b.WriteString(st.title.Render(fmt.Sprintf("batch run: %d steps, t=%.4f %s", trace.Steps(), end, timeUnit)))
	b.WriteString("  " + status + "\n")

	for i, c := range trace.Final() {
		b.WriteString(st.label.Render(trace.Species[i]) + st.value.Render(fmt.Sprintf("%.6g %s", c, concUnit)) + "\n")
	}
	if len(trace.Recorded) > 0 {
		times := make([]string, len(trace.Recorded))
		for i, t := range trace.Recorded {
			times[i] = strconv.FormatFloat(t, 'g', 6, 64)
		}
		b.WriteString(st.label.Render("recorded") + st.value.Render(strings.Join(times, ", ")) + "\n")
	}
	for _, name := range sortedKeys(trace.Metrics) {
		b.WriteString(st.label.Render(name) + st.value.Render(fmt.Sprintf("%.6g", trace.Metrics[name])) + "\n")
	}
	return st.panel.Render(strings.TrimSuffix(b.String(), "\n"))
}
