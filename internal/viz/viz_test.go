package viz

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/chemgaloo/internal/kinetics"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

func decayTrace() *reactor.Trace {
	return &reactor.Trace{
		Species:        []string{"A", "B"},
		Times:          []float64{0, 0.5, 1},
		Concentrations: [][]float64{{1, 0.5, 0.25}, {0, 0.5, 0.75}},
		Expired:        true,
		Metrics:        map[string]float64{"positivity": 1},
	}
}

func decayStart(steps int) StartFunc {
	return func() (*reactor.Session, error) {
		a, b := kinetics.NewChemical("A", 1), kinetics.NewChemical("B", 0)
		r, err := kinetics.NewReaction([]*kinetics.Chemical{a}, []*kinetics.Chemical{b}, []float64{1, 1}, 1)
		if err != nil {
			return nil, err
		}
		batch := reactor.NewBatch(nil, []*kinetics.Reaction{r})
		batch.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return batch.Start(reactor.BatchConfig{Dt: 0.01, Steps: steps})
	}
}

func TestReportPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewReportPrinter(&buf, ThemeMono, "mol/L", "second")

	p.Report(reactor.StateReport{
		Step:           12,
		Time:           0.12,
		Species:        []string{"A", "B"},
		Concentrations: []float64{0.75, 0.25},
		RateConstants:  []float64{1.5},
		Fired:          []int{0, 2},
		Quenched:       true,
	})

	out := buf.String()
	for _, want := range []string{"step 12", "QUENCHED", "0.75 mol/L", "k1", "1.5", "detectors fired: 1, 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if p.Printed() != 1 {
		t.Errorf("expected 1 report, got %d", p.Printed())
	}
}

func TestRenderCSTR(t *testing.T) {
	out := RenderCSTR(&reactor.CSTRResult{
		Species:    []string{"A"},
		Outflow:    []float64{0.4},
		Iterations: 3,
		Converged:  false,
	}, ThemeLab, "mol/L")

	if !strings.Contains(out, "not converged") || !strings.Contains(out, "0.4 mol/L") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestRenderTrace(t *testing.T) {
	trace := decayTrace()
	trace.Recorded = []float64{0.5}
	out := RenderTrace(trace, ThemeLab, "mol/L", "second")

	for _, want := range []string{"2 steps", "expired", "0.25 mol/L", "recorded", "positivity"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace summary missing %q:\n%s", want, out)
		}
	}
}

func TestPlotTrace(t *testing.T) {
	opts := DefaultPlotOptions()
	opts.Species = []string{"B"}

	chart, err := PlotTrace(decayTrace(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(chart, "concentration") {
		t.Errorf("expected default caption, got:\n%s", chart)
	}

	opts.Species = []string{"Z"}
	if _, err := PlotTrace(decayTrace(), opts); err == nil {
		t.Error("expected error for unknown species")
	}

	if _, err := PlotTrace(&reactor.Trace{}, DefaultPlotOptions()); !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("expected ErrEmptyTrace, got %v", err)
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if got := []rune(Sparkline([]float64{0, 1}, 2)); len(got) != 2 || got[0] != '▁' || got[1] != '█' {
		t.Errorf("unexpected sparkline %q", string(got))
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected flat line, got %q", got)
	}
	if got := ProgressBar(2, 4); got != "████" {
		t.Errorf("progress should clamp, got %q", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	if NextTheme(Themes[len(Themes)-1]).Name != Themes[0].Name {
		t.Error("theme cycle should wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}

func TestModelSteps(t *testing.T) {
	m := NewModel("decay", decayStart(5), ThemeLab, "mol/L")

	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	if m.Session().StepIndex() != 1 {
		t.Fatalf("expected 1 step, got %d", m.Session().StepIndex())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	m = next.(Model)
	for i := 0; i < 5; i++ {
		next, _ = m.Update(TickMsg{})
		m = next.(Model)
	}
	if !m.Session().Done() || m.Session().StepIndex() != 5 {
		t.Errorf("expected finished session at step 5, got %d", m.Session().StepIndex())
	}
	if !strings.Contains(m.View(), "DONE") {
		t.Error("view should show a finished run")
	}
}

func TestModelPauseResetQuit(t *testing.T) {
	m := NewModel("decay", decayStart(100), ThemeLab, "mol/L")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if m.Running() {
		t.Fatal("space should pause")
	}
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if m.Session().StepIndex() != 0 {
		t.Error("paused model must not step")
	}

	m.running = true
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	if m.Session().StepIndex() != 0 {
		t.Error("reset should start a fresh session")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelStartError(t *testing.T) {
	m := NewModel("broken", func() (*reactor.Session, error) {
		return nil, reactor.ErrInvalidConfig
	}, ThemeLab, "mol/L")

	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	if !strings.Contains(m.View(), "error") {
		t.Error("view should show the start error")
	}
}
