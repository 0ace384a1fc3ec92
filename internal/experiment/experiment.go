package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/chemgaloo/internal/config"
	"github.com/san-kum/chemgaloo/internal/detector"
	"github.com/san-kum/chemgaloo/internal/kinetics"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

// Experiment holds the live species, reactions and detectors built from a scenario.
type Experiment struct {
	cfg       *config.Config
	chemicals []*kinetics.Chemical
	reactions []*kinetics.Reaction
	detectors []*detector.Detector
	registry  *Registry
	reporter  reactor.Reporter
	logger    *slog.Logger
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   slog.Default(),
	}

	byName := make(map[string]*kinetics.Chemical, len(cfg.Species))
	for _, s := range cfg.Species {
		c := kinetics.NewChemical(s.Name, s.C)
		e.chemicals = append(e.chemicals, c)
		byName[s.Name] = c
	}
	lookup := func(names []string) []*kinetics.Chemical {
		out := make([]*kinetics.Chemical, len(names))
		for i, n := range names {
			out[i] = byName[n]
		}
		return out
	}

	for i, rc := range cfg.Reactions {
		r, err := kinetics.NewReaction(lookup(rc.Reactants), lookup(rc.Products), rc.Stoich, rc.K)
		if err != nil {
			return nil, fmt.Errorf("reaction %d: %w", i+1, err)
		}
		r.Name = rc.Name
		e.reactions = append(e.reactions, r)
	}

	for i, dc := range cfg.Detectors {
		d, err := buildDetector(dc, lookup(dc.Targets))
		if err != nil {
			return nil, fmt.Errorf("detector %d: %w", i+1, err)
		}
		e.detectors = append(e.detectors, d)
	}

	return e, nil
}

func buildDetector(dc config.DetectorConfig, targets []*kinetics.Chemical) (*detector.Detector, error) {
	attr, err := detector.ParseAttribute(dc.Attribute)
	if err != nil {
		return nil, err
	}
	mode, err := detector.ParseMode(dc.Mode)
	if err != nil {
		return nil, err
	}
	motion, err := detector.ParseMotion(dc.Motion)
	if err != nil {
		return nil, err
	}
	precision := config.DefaultPrecision
	if dc.Precision != nil {
		precision = *dc.Precision
	}

	d, err := detector.New(attr, mode, targets, dc.Expected, precision, motion)
	if err != nil {
		return nil, err
	}
	d.Name = dc.Name
	return d, nil
}

func (e *Experiment) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetReporter replaces the default log reporter of batch runs.
func (e *Experiment) SetReporter(r reactor.Reporter) { e.reporter = r }

func (e *Experiment) Config() *config.Config          { return e.cfg }
func (e *Experiment) Chemicals() []*kinetics.Chemical { return e.chemicals }
func (e *Experiment) Reactions() []*kinetics.Reaction { return e.reactions }
func (e *Experiment) Detectors() []*detector.Detector { return e.detectors }
func (e *Experiment) Registry() *Registry             { return e.registry }
func (e *Experiment) Metrics() []reactor.Metric       { return e.registry.DefaultMetrics(e.cfg) }

// Reset restores the initial concentrations of the scenario and the CSTR feed.
func (e *Experiment) Reset() {
	for i, s := range e.cfg.Species {
		c := e.chemicals[i]
		c.C = s.C
		c.In = s.C
		if s.Feed != nil {
			c.In = *s.Feed
		}
		c.Out = kinetics.DefaultOutflow
	}
}

// Batch resets the species and returns a batch reactor with the default metrics attached.
func (e *Experiment) Batch() *reactor.Batch {
	e.Reset()
	b := reactor.NewBatch(e.chemicals, e.reactions, e.detectors...)
	b.SetLogger(e.logger)
	if e.reporter != nil {
		b.SetReporter(e.reporter)
	} else {
		b.SetReporter(reactor.NewLogReporter(e.logger))
	}
	for _, m := range e.Metrics() {
		b.AddMetric(m)
	}
	return b
}

func (e *Experiment) RunBatch(ctx context.Context) (*reactor.Trace, error) {
	settings, err := e.cfg.BatchSettings()
	if err != nil {
		return nil, err
	}
	return e.Batch().Run(ctx, settings)
}

func (e *Experiment) RunCSTR(ctx context.Context) (*reactor.CSTRResult, error) {
	settings, err := e.cfg.CSTRSettings()
	if err != nil {
		return nil, err
	}
	e.Reset()
	cstr := reactor.NewCSTR(e.chemicals, e.reactions)
	cstr.SetLogger(e.logger)
	return cstr.Solve(ctx, settings)
}
