package metrics

// Conversion is the consumed fraction of one species, 1 - c/c0, at the latest observation.
type Conversion struct {
	name    string
	index   int
	initial float64
	current float64
	samples int
}

func NewConversion(name string, index int) *Conversion {
	return &Conversion{
		name:  "conversion_" + name,
		index: index,
	}
}

func (c *Conversion) Name() string {
	return c.name
}

func (c *Conversion) Observe(conc []float64, t float64) {
	if c.index < 0 || c.index >= len(conc) {
		return
	}
	if c.samples == 0 {
		c.initial = conc[c.index]
	}
	c.current = conc[c.index]
	c.samples++
}

func (c *Conversion) Value() float64 {
	if c.samples == 0 || c.initial == 0 {
		return 0
	}
	return 1 - c.current/c.initial
}

func (c *Conversion) Reset() {
	c.initial = 0
	c.current = 0
	c.samples = 0
}
