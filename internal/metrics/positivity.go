package metrics

// Positivity is the fraction of observed states with every concentration above -tolerance.
// Explicit Euler can overshoot below zero when dt is too large; nothing corrects that, so
// this metric makes it visible.
type Positivity struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewPositivity(tolerance float64) *Positivity {
	return &Positivity{
		name:      "positivity",
		tolerance: tolerance,
	}
}

func (p *Positivity) Name() string {
	return p.name
}

func (p *Positivity) Observe(conc []float64, t float64) {
	p.samples++
	for _, val := range conc {
		if val < -p.tolerance {
			p.violations++
			break
		}
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
