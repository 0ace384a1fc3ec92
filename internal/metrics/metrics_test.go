package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/chemgaloo/internal/reactor"
)

var (
	_ reactor.Metric = (*Conservation)(nil)
	_ reactor.Metric = (*Positivity)(nil)
	_ reactor.Metric = (*Conversion)(nil)
)

func TestConservationDrift(t *testing.T) {
	m := NewConservation("", []float64{1, 1})

	m.Observe([]float64{1.0, 0.0}, 0)
	m.Observe([]float64{0.6, 0.4}, 1)
	if m.Value() > 1e-12 {
		t.Errorf("expected no drift, got %g", m.Value())
	}

	m.Observe([]float64{0.6, 0.5}, 2)
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %g", m.Value())
	}

	m.Observe([]float64{0.5, 0.5}, 3)
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("drift must keep its maximum, got %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
	if m.Name() != "conservation_drift" {
		t.Errorf("unexpected default name %q", m.Name())
	}
}

func TestPositivity(t *testing.T) {
	m := NewPositivity(1e-12)
	if m.Value() != 1.0 {
		t.Error("expected 1.0 with no samples")
	}

	m.Observe([]float64{1, 0}, 0)
	m.Observe([]float64{0.5, -0.1}, 1)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Error("expected 1.0 after reset")
	}
}

func TestConversion(t *testing.T) {
	tests := []struct {
		name  string
		index int
		obs   [][]float64
		want  float64
	}{
		{"half consumed", 0, [][]float64{{2, 0}, {1, 1}}, 0.5},
		{"untouched", 1, [][]float64{{2, 1}, {1, 1}}, 0},
		{"zero initial", 1, [][]float64{{2, 0}, {1, 1}}, 0},
		{"out of range", 5, [][]float64{{2, 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConversion("A", tt.index)
			for i, c := range tt.obs {
				m.Observe(c, float64(i))
			}
			if math.Abs(m.Value()-tt.want) > 1e-12 {
				t.Errorf("got %f, want %f", m.Value(), tt.want)
			}
		})
	}
}
