package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/chemgaloo/internal/config"
	"github.com/san-kum/chemgaloo/internal/metrics"
	"github.com/san-kum/chemgaloo/internal/reactor"
)

// PositivityTolerance is the slack below zero tolerated by the positivity metric.
const PositivityTolerance = 1e-12

// MetricFactory builds a metric for a scenario, or returns nil when it does not apply.
type MetricFactory func(cfg *config.Config) reactor.Metric

type Registry struct {
	metrics map[string]MetricFactory
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]MetricFactory)}

	r.metrics["positivity"] = func(*config.Config) reactor.Metric {
		return metrics.NewPositivity(PositivityTolerance)
	}
	r.metrics["conversion"] = func(cfg *config.Config) reactor.Metric {
		if len(cfg.Species) == 0 {
			return nil
		}
		return metrics.NewConversion(cfg.Species[0].Name, 0)
	}
	r.metrics["conservation"] = func(cfg *config.Config) reactor.Metric {
		weights := cfg.ConservationWeights()
		if weights == nil {
			return nil
		}
		return metrics.NewConservation("", weights)
	}

	return r
}

func (r *Registry) Register(name string, f MetricFactory) {
	r.metrics[name] = f
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (reactor.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	m := fn(cfg)
	if m == nil {
		return nil, fmt.Errorf("metric %s does not apply to scenario %s", name, cfg.Name)
	}
	return m, nil
}

// MetricKey maps a registered name to the key its metric reports under in Trace.Metrics
// for cfg, e.g. "conversion" to "conversion_A". Unregistered names are returned unchanged.
func (r *Registry) MetricKey(name string, cfg *config.Config) (string, error) {
	if _, ok := r.metrics[name]; !ok {
		return name, nil
	}
	m, err := r.GetMetric(name, cfg)
	if err != nil {
		return "", err
	}
	return m.Name(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns every registered metric that applies to cfg, in name order.
func (r *Registry) DefaultMetrics(cfg *config.Config) []reactor.Metric {
	var out []reactor.Metric
	for _, name := range r.ListMetrics() {
		if m := r.metrics[name](cfg); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// GetScenario returns a copy of a named preset.
func GetScenario(name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return cfg, nil
}
