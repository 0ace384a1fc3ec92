package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

const (
	chartWidth   = 60
	chartHeight  = 12
	chartHistory = 300
	maxPerTick   = 1000
)

type TickMsg time.Time

// StartFunc begins a fresh batch session. The live view calls it on start and reset.
type StartFunc func() (*reactor.Session, error)

// Model is a bubbletea view that steps a batch session on a timer.
type Model struct {
	title    string
	start    StartFunc
	session  *reactor.Session
	running  bool
	perTick  int
	fired    int
	theme    Theme
	concUnit string
	err      error
}

func NewModel(title string, start StartFunc, theme Theme, concUnit string) Model {
	m := Model{
		title:    title,
		start:    start,
		running:  true,
		perTick:  1,
		theme:    theme,
		concUnit: concUnit,
	}
	m.reset()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.perTick = min(m.perTick*2, maxPerTick)
		case "-", "_":
			m.perTick = max(m.perTick/2, 1)
		case "t":
			m.theme = NextTheme(m.theme)
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.fired = 0
	m.session, m.err = m.start()
}

func (m *Model) advance() {
	if m.session == nil || m.err != nil {
		return
	}
	for i := 0; i < m.perTick && !m.session.Done(); i++ {
		out, err := m.session.Step()
		if err != nil {
			m.err = err
			return
		}
		m.fired += len(out.Fired)
	}
}

// Session is the session currently displayed.
func (m Model) Session() *reactor.Session { return m.session }

func (m Model) Running() bool { return m.running }

func (m Model) View() string {
	st := newStyles(m.theme)
	var s strings.Builder

	s.WriteString(st.title.Render(m.title) + "\n\n")
	if m.session == nil {
		s.WriteString(st.errText.Render(fmt.Sprintf("error: %v", m.err)) + "\n")
		s.WriteString(st.hint.Render("r: retry  q: quit"))
		return s.String()
	}

	trace := m.session.Trace()
	status := st.running.Render("RUNNING")
	switch {
	case m.err != nil:
		status = st.errText.Render("ERROR")
	case m.session.Done() && !trace.Expired:
		status = st.quenched.Render("QUENCHED")
	case m.session.Done():
		status = st.paused.Render("DONE")
	case !m.running:
		status = st.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n")

	cfg := m.session.Config()
	frac := 1.0
	if cfg.Steps > 0 {
		frac = float64(m.session.StepIndex()) / float64(cfg.Steps)
	}
	s.WriteString(ProgressBar(frac, 40) + fmt.Sprintf(" %d/%d\n\n", m.session.StepIndex(), cfg.Steps))

	chart, err := PlotTrace(tail(trace, chartHistory), PlotOptions{
		Height: chartHeight,
		Width:  chartWidth,
		Theme:  m.theme,
	})
	if err == nil {
		s.WriteString(chart + "\n\n")
	}

	final := trace.Final()
	for i, name := range trace.Species {
		s.WriteString(st.label.Render(name) + st.value.Render(fmt.Sprintf("%.6g %s", final[i], m.concUnit)) + "\n")
	}
	s.WriteString(st.label.Render("time") + st.value.Render(fmt.Sprintf("%.4f", m.session.Time())) + "\n")
	s.WriteString(st.label.Render("fired") + st.value.Render(fmt.Sprintf("%d", m.fired)) + "\n")
	s.WriteString(st.label.Render("recorded") + st.value.Render(fmt.Sprintf("%d", len(trace.Recorded))) + "\n")
	s.WriteString(st.label.Render("speed") + st.value.Render(fmt.Sprintf("%d steps/frame", m.perTick)) + "\n")
	if m.err != nil {
		s.WriteString(st.errText.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + st.hint.Render("space: pause  r: reset  +/-: speed  t: theme  q: quit"))
	return s.String()
}

// tail returns a view of the last n points of a trace.
func tail(trace *reactor.Trace, n int) *reactor.Trace {
	if len(trace.Times) <= n {
		return trace
	}
	from := len(trace.Times) - n
	out := &reactor.Trace{
		Species:        trace.Species,
		Times:          trace.Times[from:],
		Concentrations: make([][]float64, len(trace.Concentrations)),
	}
	for i, series := range trace.Concentrations {
		out.Concentrations[i] = series[from:]
	}
	return out
}
