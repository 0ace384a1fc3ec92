package kinetics

import "strconv"

// DefaultOutflow seeds Chemical.Out when no iterate is supplied.
const DefaultOutflow = 1.0

// Chemical is one species in the reactor.
type Chemical struct {
	Name string
	C    float64 // live concentration
	In   float64 // CSTR feed concentration
	Out  float64 // CSTR outflow estimate
}

func NewChemical(name string, c float64) *Chemical {
	return &Chemical{Name: name, C: c, Out: DefaultOutflow}
}

func (c *Chemical) Add(amount float64) { c.C += amount }

// SeedFeed prepares species for a CSTR solve: the current concentration becomes the feed
// and the outflow estimate is reset to DefaultOutflow.
func SeedFeed(chems ...*Chemical) {
	for _, c := range chems {
		c.In = c.C
		c.Out = DefaultOutflow
	}
}

// Concentrations returns the live concentrations in the given order.
func Concentrations(chems []*Chemical) []float64 {
	out := make([]float64, len(chems))
	for i, c := range chems {
		out[i] = c.C
	}
	return out
}

// Names returns species names, falling back to a positional label.
func Names(chems []*Chemical) []string {
	out := make([]string, len(chems))
	for i, c := range chems {
		out[i] = c.Label(i)
	}
	return out
}

func (c *Chemical) Label(idx int) string {
	if c.Name != "" {
		return c.Name
	}
	return "chem" + strconv.Itoa(idx+1)
}
