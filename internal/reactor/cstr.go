package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/san-kum/chemgaloo/internal/kinetics"
)

// Distribution names a residence-time distribution.
type Distribution string

const (
	Gaussian    Distribution = "gaussian"
	Uniform     Distribution = "uniform"
	Exponential Distribution = "exponential"
)

func ParseDistribution(name string) (Distribution, error) {
	d := Distribution(strings.ToLower(strings.TrimSpace(name)))
	switch d {
	case "":
		return Gaussian, nil
	case Gaussian, Uniform, Exponential:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown residence-time distribution %q", ErrInvalidConfig, name)
	}
}

// Verbosity gates CSTR diagnostics. It never changes results.
type Verbosity int

const (
	Low Verbosity = iota
	Medium
	High
	Debug
)

func (v Verbosity) String() string {
	switch v {
	case Medium:
		return "medium"
	case High:
		return "high"
	case Debug:
		return "debug"
	default:
		return "low"
	}
}

func ParseVerbosity(name string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	case "debug":
		return Debug, nil
	default:
		return Low, fmt.Errorf("%w: unknown verbosity %q", ErrInvalidConfig, name)
	}
}

type CSTRConfig struct {
	// Threads above 1 request ensemble averaging, which is not implemented.
	Threads      int
	Distribution Distribution
	// MeanResidence is the mean residence time; it sets the micro-steps per iteration.
	MeanResidence float64
	// Spread is the distribution width. Accepted but unused by the Gaussian mean-only path.
	Spread        float64
	Dt            float64
	Threshold     float64
	MaxIterations int
	Verbosity     Verbosity
}

func (c CSTRConfig) Validate() error {
	if c.Threads > 1 {
		return fmt.Errorf("%w: multi-threaded CSTR (threads=%d)", ErrNotImplemented, c.Threads)
	}
	switch c.Distribution {
	case "", Gaussian:
	case Uniform, Exponential:
		return fmt.Errorf("%w: %s residence-time distribution", ErrNotImplemented, c.Distribution)
	default:
		return fmt.Errorf("%w: unknown residence-time distribution %q", ErrInvalidConfig, string(c.Distribution))
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.MeanResidence < 0 || math.IsNaN(c.MeanResidence) {
		return fmt.Errorf("%w: mean residence time must be non-negative, got %g", ErrInvalidConfig, c.MeanResidence)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: convergence threshold must be non-negative, got %g", ErrInvalidConfig, c.Threshold)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	return nil
}

// MicroSteps is the number of inner steps per outer iteration.
func (c CSTRConfig) MicroSteps() int {
	return int(math.Floor(c.MeanResidence / c.Dt))
}

type CSTRResult struct {
	Species    []string
	Outflow    []float64
	Iterations int
	MicroSteps int
	// Score is 1 - cosine similarity between the last two outflow vectors.
	Score     float64
	Converged bool
}

// CSTR is a continuous stirred-tank reactor. Species must carry their feed in In, see
// kinetics.SeedFeed. The steady state is written to each species' Out.
type CSTR struct {
	chemicals []*kinetics.Chemical
	network   *kinetics.Network
	logger    *slog.Logger
}

func NewCSTR(chemicals []*kinetics.Chemical, reactions []*kinetics.Reaction) *CSTR {
	net := kinetics.NewNetwork(reactions...)
	if len(chemicals) == 0 {
		chemicals = net.Species()
	}
	return &CSTR{chemicals: chemicals, network: net, logger: slog.Default()}
}

func (c *CSTR) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Solve runs Picard iteration until the outflow direction stabilises or MaxIterations is
// reached. Non-convergence is reported through CSTRResult.Converged, not as an error.
func (c *CSTR) Solve(ctx context.Context, cfg CSTRConfig) (*CSTRResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nstep := cfg.MicroSteps()
	res := &CSTRResult{
		Species:    kinetics.Names(c.chemicals),
		MicroSteps: nstep,
	}

	prev := make([]float64, len(c.chemicals))
	for i, ch := range c.chemicals {
		ch.C = ch.In
		prev[i] = ch.In
	}
	c.network.RefreshCaches()

	for iter := 1; ; iter++ {
		select {
		case <-ctx.Done():
			res.Outflow = outflows(c.chemicals)
			return res, ctx.Err()
		default:
		}

		for s := 0; s < nstep; s++ {
			c.network.MixedStep(cfg.Dt)
			if cfg.Verbosity >= Debug {
				c.logger.Debug("cstr micro-step", "iteration", iter, "step", s+1, "c", kinetics.Concentrations(c.chemicals))
			}
		}

		out := kinetics.Concentrations(c.chemicals)
		for i, ch := range c.chemicals {
			ch.C = ch.In
			ch.Out = out[i]
		}
		c.network.RefreshCaches()

		score := 1 - CosineSimilarity(prev, out)
		prev = out
		res.Iterations = iter
		res.Score = score

		switch {
		case cfg.Verbosity >= High:
			c.logger.Info("cstr iteration", "iteration", iter, "score", score, "outflow", out)
		case cfg.Verbosity >= Medium:
			c.logger.Info("cstr iteration", "iteration", iter, "score", score)
		}

		if score < cfg.Threshold {
			res.Converged = true
			break
		}
		if iter >= cfg.MaxIterations {
			break
		}
	}

	res.Outflow = outflows(c.chemicals)
	if res.Converged {
		c.logger.Info("cstr converged", "iterations", res.Iterations, "score", res.Score)
	} else {
		c.logger.Warn("cstr did not converge", "iterations", res.Iterations, "score", res.Score, "threshold", cfg.Threshold)
	}
	return res, nil
}

// RunCSTR is a one-shot steady-state solve.
func RunCSTR(ctx context.Context, chemicals []*kinetics.Chemical, reactions []*kinetics.Reaction, cfg CSTRConfig) (*CSTRResult, error) {
	return NewCSTR(chemicals, reactions).Solve(ctx, cfg)
}

func outflows(chems []*kinetics.Chemical) []float64 {
	out := make([]float64, len(chems))
	for i, c := range chems {
		out[i] = c.Out
	}
	return out
}

// CosineSimilarity is the normalised dot product of a and b. Two zero vectors are
// identical (1); a zero vector against a non-zero one is 0.
func CosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 && nb == 0 {
		return 1
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
