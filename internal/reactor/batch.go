package reactor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/chemgaloo/internal/detector"
	"github.com/san-kum/chemgaloo/internal/kinetics"
)

type BatchConfig struct {
	Dt    float64
	Steps int
	// Source defaults to kinetics.Cached. Present is only order-independent for a
	// single reaction.
	Source  kinetics.Source
	Combine detector.Combine
}

func (c BatchConfig) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Source != kinetics.Cached && c.Source != kinetics.Present {
		return fmt.Errorf("%w: %v", kinetics.ErrUnknownSource, c.Source)
	}
	return nil
}

// Batch is a closed, well-mixed reactor.
type Batch struct {
	chemicals []*kinetics.Chemical
	network   *kinetics.Network
	detectors []*detector.Detector
	observers []Observer
	metrics   []Metric
	reporter  Reporter
	logger    *slog.Logger
}

// NewBatch creates a batch reactor. chemicals fixes the trace order; when empty, every
// species referenced by the reactions is traced in order of first appearance.
func NewBatch(chemicals []*kinetics.Chemical, reactions []*kinetics.Reaction, detectors ...*detector.Detector) *Batch {
	net := kinetics.NewNetwork(reactions...)
	if len(chemicals) == 0 {
		chemicals = net.Species()
	}
	logger := slog.Default()
	return &Batch{
		chemicals: chemicals,
		network:   net,
		detectors: detectors,
		reporter:  NewLogReporter(logger),
		logger:    logger,
	}
}

func (b *Batch) AddObserver(o Observer) { b.observers = append(b.observers, o) }
func (b *Batch) AddMetric(m Metric)     { b.metrics = append(b.metrics, m) }
func (b *Batch) SetReporter(r Reporter) { b.reporter = r }

func (b *Batch) SetLogger(l *slog.Logger) {
	if l != nil {
		b.logger = l
	}
}

func (b *Batch) Chemicals() []*kinetics.Chemical { return b.chemicals }
func (b *Batch) Network() *kinetics.Network      { return b.network }

// Run integrates cfg.Steps steps or until a detector quenches the run. On context
// cancellation the partial trace is returned with ctx.Err().
func (b *Batch) Run(ctx context.Context, cfg BatchConfig) (*Trace, error) {
	s, err := b.Start(cfg)
	if err != nil {
		return nil, err
	}

	for !s.Done() {
		select {
		case <-ctx.Done():
			return s.Trace(), ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return s.Trace(), err
		}
	}

	return s.Trace(), nil
}

// RunBatch is a one-shot batch run.
func RunBatch(ctx context.Context, chemicals []*kinetics.Chemical, reactions []*kinetics.Reaction, detectors []*detector.Detector, cfg BatchConfig) (*Trace, error) {
	return NewBatch(chemicals, reactions, detectors...).Run(ctx, cfg)
}

// Start validates cfg, snapshots the current concentrations and returns a session
// positioned at t=0.
func (b *Batch) Start(cfg BatchConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b.network.RefreshCaches()
	for _, m := range b.metrics {
		m.Reset()
	}

	trace := &Trace{
		Species:        kinetics.Names(b.chemicals),
		Times:          make([]float64, 1, cfg.Steps+1),
		Concentrations: make([][]float64, len(b.chemicals)),
		Expired:        true,
		Metrics:        make(map[string]float64),
	}
	for i, c := range b.chemicals {
		trace.Concentrations[i] = make([]float64, 1, cfg.Steps+1)
		trace.Concentrations[i][0] = c.C
	}

	s := &Session{batch: b, cfg: cfg, trace: trace}
	s.observe(kinetics.Concentrations(b.chemicals))
	if cfg.Steps == 0 {
		s.finish()
	}
	return s, nil
}

// Session is a batch run in progress.
type Session struct {
	batch *Batch
	cfg   BatchConfig
	trace *Trace
	step  int
	done  bool
}

func (s *Session) Done() bool          { return s.done }
func (s *Session) Trace() *Trace       { return s.trace }
func (s *Session) StepIndex() int      { return s.step }
func (s *Session) Time() float64       { return s.trace.Times[len(s.trace.Times)-1] }
func (s *Session) Config() BatchConfig { return s.cfg }

// Step advances one time step, records the new state and applies the detectors' combined
// motion.
func (s *Session) Step() (detector.Outcome, error) {
	if s.done {
		return detector.Outcome{}, ErrSessionDone
	}
	b := s.batch

	b.network.Step(s.cfg.Dt, s.cfg.Source)
	s.step++
	t := float64(s.step) * s.cfg.Dt

	conc := kinetics.Concentrations(b.chemicals)
	for i, c := range conc {
		s.trace.Concentrations[i] = append(s.trace.Concentrations[i], c)
	}
	s.trace.Times = append(s.trace.Times, t)
	s.observe(conc)

	out, err := detector.Resolve(b.detectors, t, s.cfg.Combine)
	if err != nil {
		s.done = true
		return out, &StepError{Step: s.step, Time: t, Err: err}
	}

	for _, idx := range out.Fired {
		b.logger.Info("detector fired", "detector", idx+1, "time", t)
	}
	for i := 0; i < out.Records; i++ {
		s.trace.Recorded = append(s.trace.Recorded, t)
	}
	if out.Print && b.reporter != nil {
		b.reporter.Report(StateReport{
			Step:           s.step,
			Time:           t,
			Species:        s.trace.Species,
			Concentrations: conc,
			RateConstants:  b.network.RateConstants(),
			Fired:          out.Fired,
			Quenched:       out.Quench,
		})
	}

	if out.Quench {
		b.logger.Info("reactions quenched", "step", s.step, "time", t)
		s.trace.Expired = false
		s.finish()
	} else if s.step >= s.cfg.Steps {
		s.finish()
	}
	return out, nil
}

func (s *Session) observe(conc []float64) {
	t := s.trace.Times[len(s.trace.Times)-1]
	for _, o := range s.batch.observers {
		o.OnStep(s.step, t, conc)
	}
	for _, m := range s.batch.metrics {
		m.Observe(conc, t)
	}
}

func (s *Session) finish() {
	s.done = true
	for _, m := range s.batch.metrics {
		s.trace.Metrics[m.Name()] = m.Value()
	}
}
