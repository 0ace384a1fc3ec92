package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/chemgaloo/internal/config"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

// Sweep runs the batch scenario once per rate constant value of one reaction. Runs are
// independent and execute concurrently.
type Sweep struct {
	base     *config.Config
	reaction int
	values   []float64
	logger   *slog.Logger
}

type SweepResult struct {
	K     float64
	Trace *reactor.Trace
}

// NewSweep varies the rate constant of cfg.Reactions[reaction].
func NewSweep(cfg *config.Config, reaction int, values []float64) (*Sweep, error) {
	if reaction < 0 || reaction >= len(cfg.Reactions) {
		return nil, fmt.Errorf("%w: reaction %d out of range (scenario has %d)", config.ErrInvalid, reaction+1, len(cfg.Reactions))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sweep needs at least one rate constant", config.ErrInvalid)
	}
	return &Sweep{
		base:     cfg,
		reaction: reaction,
		values:   append([]float64(nil), values...),
		logger:   slog.Default(),
	}, nil
}

func (s *Sweep) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run returns one result per value, in input order. The first failing run's error is returned.
func (s *Sweep) Run(ctx context.Context) ([]SweepResult, error) {
	results := make([]SweepResult, len(s.values))
	errs := make([]error, len(s.values))

	var wg sync.WaitGroup
	for i, k := range s.values {
		wg.Add(1)
		go func(idx int, k float64) {
			defer wg.Done()

			cfg := s.base.Clone()
			cfg.Reactions[s.reaction].K = k

			e, err := New(cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			e.SetLogger(s.logger.With("k", k))

			trace, err := e.RunBatch(ctx)
			results[idx] = SweepResult{K: k, Trace: trace}
			errs[idx] = err
		}(i, k)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Best accepts a registered metric name or a Trace.Metrics key and returns the winning
// result together with the resolved key.
func (s *Sweep) Best(results []SweepResult, metric string) (SweepResult, string, error) {
	key, err := NewRegistry().MetricKey(metric, s.base)
	if err != nil {
		return SweepResult{}, "", err
	}
	best, err := Best(results, key)
	return best, key, err
}

// Best returns the result with the smallest value of the named run metric.
func Best(results []SweepResult, metric string) (SweepResult, error) {
	best := math.Inf(1)
	var out SweepResult
	found := false
	for _, r := range results {
		v, ok := r.Trace.Metrics[metric]
		if !ok {
			return SweepResult{}, fmt.Errorf("unknown metric: %s (available: %v)", metric, metricKeys(r.Trace))
		}
		if !found || v < best {
			best, out, found = v, r, true
		}
	}
	if !found {
		return SweepResult{}, fmt.Errorf("no sweep results")
	}
	return out, nil
}

func metricKeys(t *reactor.Trace) []string {
	keys := make([]string, 0, len(t.Metrics))
	for k := range t.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
