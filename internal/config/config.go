package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chemgaloo/internal/detector"
	"github.com/san-kum/chemgaloo/internal/kinetics"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

const (
	DefaultDt            = 0.01
	DefaultSteps         = 1000
	DefaultPrecision     = detector.DefaultPrecision
	DefaultMeanResidence = 3.0
	DefaultSpread        = 1e-5
	DefaultThreshold     = 1e-6
	DefaultMaxIterations = 20
	DefaultConcUnit      = "mol/L"
	DefaultTimeUnit      = "second"
)

// ErrInvalid indicates a scenario file that cannot be built into a reactor.
var ErrInvalid = errors.New("config: invalid scenario")

// Config is a reaction scenario: species, reactions, detectors and reactor settings.
type Config struct {
	Name      string           `yaml:"name"`
	Units     UnitsConfig      `yaml:"units"`
	Species   []SpeciesConfig  `yaml:"species"`
	Reactions []ReactionConfig `yaml:"reactions"`
	Detectors []DetectorConfig `yaml:"detectors,omitempty"`
	Batch     BatchConfig      `yaml:"batch"`
	CSTR      CSTRConfig       `yaml:"cstr"`
}

// UnitsConfig holds display labels only.
type UnitsConfig struct {
	Concentration string `yaml:"concentration"`
	Time          string `yaml:"time"`
}

type SpeciesConfig struct {
	Name string  `yaml:"name"`
	C    float64 `yaml:"c"`
	// Feed is the CSTR inflow concentration; defaults to C.
	Feed *float64 `yaml:"feed,omitempty"`
	// Weight enters the conserved total tracked by the conservation metric.
	Weight float64 `yaml:"weight,omitempty"`
}

type ReactionConfig struct {
	Name      string    `yaml:"name,omitempty"`
	Reactants []string  `yaml:"reactants"`
	Products  []string  `yaml:"products"`
	Stoich    []float64 `yaml:"stoich"`
	K         float64   `yaml:"k"`
}

type DetectorConfig struct {
	Name      string    `yaml:"name,omitempty"`
	Attribute string    `yaml:"attribute"`
	Mode      string    `yaml:"mode,omitempty"`
	Targets   []string  `yaml:"targets,omitempty"`
	Expected  []float64 `yaml:"expected"`
	Precision *int      `yaml:"precision,omitempty"`
	Motion    string    `yaml:"motion"`
}

type BatchConfig struct {
	Dt      float64 `yaml:"dt"`
	Steps   int     `yaml:"steps"`
	Source  string  `yaml:"source,omitempty"`
	Combine string  `yaml:"combine,omitempty"`
}

type CSTRConfig struct {
	Threads       int     `yaml:"threads"`
	Distribution  string  `yaml:"distribution"`
	Mean          float64 `yaml:"mean"`
	Spread        float64 `yaml:"spread"`
	Dt            float64 `yaml:"dt"`
	Threshold     float64 `yaml:"threshold"`
	MaxIterations int     `yaml:"max_iterations"`
	Verbosity     string  `yaml:"verbosity"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "scenario",
		Units: UnitsConfig{
			Concentration: DefaultConcUnit,
			Time:          DefaultTimeUnit,
		},
		Batch: BatchConfig{
			Dt:      DefaultDt,
			Steps:   DefaultSteps,
			Source:  "cached",
			Combine: "overwrite",
		},
		CSTR: CSTRConfig{
			Threads:       1,
			Distribution:  string(reactor.Gaussian),
			Mean:          DefaultMeanResidence,
			Spread:        DefaultSpread,
			Dt:            DefaultDt,
			Threshold:     DefaultThreshold,
			MaxIterations: DefaultMaxIterations,
			Verbosity:     "low",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML scenario over DefaultConfig and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks names and enumerations. Numeric limits are left to the reactors.
func (c *Config) Validate() error {
	if len(c.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrInvalid)
	}
	index := make(map[string]bool, len(c.Species))
	for i, s := range c.Species {
		if s.Name == "" {
			return fmt.Errorf("%w: species %d has no name", ErrInvalid, i+1)
		}
		if index[s.Name] {
			return fmt.Errorf("%w: duplicate species %q", ErrInvalid, s.Name)
		}
		index[s.Name] = true
	}

	known := func(names []string, where string) error {
		for _, n := range names {
			if !index[n] {
				return fmt.Errorf("%w: %s references unknown species %q", ErrInvalid, where, n)
			}
		}
		return nil
	}

	for i, r := range c.Reactions {
		where := fmt.Sprintf("reaction %d", i+1)
		if err := known(r.Reactants, where); err != nil {
			return err
		}
		if err := known(r.Products, where); err != nil {
			return err
		}
		if len(r.Stoich) != len(r.Reactants)+len(r.Products) {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, where, kinetics.ErrStoichiometry)
		}
	}

	for i, d := range c.Detectors {
		where := fmt.Sprintf("detector %d", i+1)
		if err := known(d.Targets, where); err != nil {
			return err
		}
		if _, err := detector.ParseAttribute(d.Attribute); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, where, err)
		}
		if _, err := detector.ParseMode(d.Mode); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, where, err)
		}
		if _, err := detector.ParseMotion(d.Motion); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, where, err)
		}
		if d.Precision != nil {
			if err := detector.ValidatePrecision(*d.Precision); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalid, where, err)
			}
		}
	}

	if _, err := kinetics.ParseSource(c.Batch.Source); err != nil {
		return fmt.Errorf("%w: batch: %w", ErrInvalid, err)
	}
	if _, err := detector.ParseCombine(c.Batch.Combine); err != nil {
		return fmt.Errorf("%w: batch: %w", ErrInvalid, err)
	}
	if _, err := reactor.ParseDistribution(c.CSTR.Distribution); err != nil {
		return fmt.Errorf("%w: cstr: %w", ErrInvalid, err)
	}
	if _, err := reactor.ParseVerbosity(c.CSTR.Verbosity); err != nil {
		return fmt.Errorf("%w: cstr: %w", ErrInvalid, err)
	}
	return nil
}

// ConservationWeights returns per-species weights, or nil when none are set.
func (c *Config) ConservationWeights() []float64 {
	weights := make([]float64, len(c.Species))
	set := false
	for i, s := range c.Species {
		weights[i] = s.Weight
		set = set || s.Weight != 0
	}
	if !set {
		return nil
	}
	return weights
}

// BatchSettings converts the batch section into reactor settings.
func (c *Config) BatchSettings() (reactor.BatchConfig, error) {
	src, err := kinetics.ParseSource(c.Batch.Source)
	if err != nil {
		return reactor.BatchConfig{}, err
	}
	combine, err := detector.ParseCombine(c.Batch.Combine)
	if err != nil {
		return reactor.BatchConfig{}, err
	}
	return reactor.BatchConfig{
		Dt:      c.Batch.Dt,
		Steps:   c.Batch.Steps,
		Source:  src,
		Combine: combine,
	}, nil
}

// CSTRSettings converts the cstr section into reactor settings.
func (c *Config) CSTRSettings() (reactor.CSTRConfig, error) {
	dist, err := reactor.ParseDistribution(c.CSTR.Distribution)
	if err != nil {
		return reactor.CSTRConfig{}, err
	}
	verbosity, err := reactor.ParseVerbosity(c.CSTR.Verbosity)
	if err != nil {
		return reactor.CSTRConfig{}, err
	}
	return reactor.CSTRConfig{
		Threads:       c.CSTR.Threads,
		Distribution:  dist,
		MeanResidence: c.CSTR.Mean,
		Spread:        c.CSTR.Spread,
		Dt:            c.CSTR.Dt,
		Threshold:     c.CSTR.Threshold,
		MaxIterations: c.CSTR.MaxIterations,
		Verbosity:     verbosity,
	}, nil
}

// Clone returns a deep copy, so presets can be edited safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Species = make([]SpeciesConfig, len(c.Species))
	for i, s := range c.Species {
		out.Species[i] = s
		if s.Feed != nil {
			feed := *s.Feed
			out.Species[i].Feed = &feed
		}
	}
	out.Reactions = make([]ReactionConfig, len(c.Reactions))
	for i, r := range c.Reactions {
		out.Reactions[i] = ReactionConfig{
			Name:      r.Name,
			Reactants: append([]string(nil), r.Reactants...),
			Products:  append([]string(nil), r.Products...),
			Stoich:    append([]float64(nil), r.Stoich...),
			K:         r.K,
		}
	}
	out.Detectors = make([]DetectorConfig, len(c.Detectors))
	for i, d := range c.Detectors {
		out.Detectors[i] = d
		out.Detectors[i].Targets = append([]string(nil), d.Targets...)
		out.Detectors[i].Expected = append([]float64(nil), d.Expected...)
		if d.Precision != nil {
			p := *d.Precision
			out.Detectors[i].Precision = &p
		}
	}
	return &out
}
