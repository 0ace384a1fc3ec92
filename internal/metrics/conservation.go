package metrics

import "math"

// Conservation tracks the largest relative drift of a weighted species total, e.g. an
// element balance. A balanced network keeps it near zero for small dt.
type Conservation struct {
	name     string
	weights  []float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewConservation(name string, weights []float64) *Conservation {
	if name == "" {
		name = "conservation_drift"
	}
	return &Conservation{name: name, weights: weights}
}

func (c *Conservation) Name() string { return c.name }

func (c *Conservation) Observe(conc []float64, t float64) {
	total := 0.0
	for i, w := range c.weights {
		if i < len(conc) {
			total += w * conc[i]
		}
	}

	if c.samples == 0 {
		c.initial = total
	}
	c.samples++

	if c.initial != 0 {
		drift := math.Abs(total-c.initial) / math.Abs(c.initial)
		c.maxDrift = math.Max(c.maxDrift, drift)
	}
}

func (c *Conservation) Value() float64 {
	return c.maxDrift
}

func (c *Conservation) Reset() {
	c.initial = 0
	c.maxDrift = 0
	c.samples = 0
}
