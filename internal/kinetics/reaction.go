package kinetics

import (
	"fmt"
	"math"
	"strings"
)

// Source selects which concentrations a rate is computed from.
type Source int

const (
	// Cached reads the reaction's pre-step snapshot. Required when reactions share species.
	Cached Source = iota
	// Present reads live concentrations. Only order-independent for a single reaction.
	Present
)

func (s Source) String() string {
	switch s {
	case Cached:
		return "cached"
	case Present:
		return "present"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cached":
		return Cached, nil
	case "present":
		return Present, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}

// Reaction is one elementary mass-action step. Stoich holds one coefficient per reactant
// followed by one per product.
type Reaction struct {
	Name      string
	Reactants []*Chemical
	Products  []*Chemical
	Stoich    []float64
	K         float64

	// cache and delta share the layout reactants-then-products.
	cache []float64
	delta []float64
	rates []float64
}

// NewReaction validates the coefficient list and takes an initial snapshot of the species.
// Negative and zero rate constants are accepted.
func NewReaction(reactants, products []*Chemical, stoich []float64, k float64) (*Reaction, error) {
	n := len(reactants) + len(products)
	if len(stoich) != n {
		return nil, fmt.Errorf("%w: %d species, %d coefficients", ErrStoichiometry, n, len(stoich))
	}
	for i, s := range stoich {
		if !(s > 0) {
			return nil, fmt.Errorf("%w: coefficient %d is %g", ErrNonPositiveCoefficient, i, s)
		}
	}
	for _, c := range reactants {
		if c == nil {
			return nil, ErrNilChemical
		}
	}
	for _, c := range products {
		if c == nil {
			return nil, ErrNilChemical
		}
	}

	r := &Reaction{
		Reactants: reactants,
		Products:  products,
		Stoich:    append([]float64(nil), stoich...),
		K:         k,
		cache:     make([]float64, n),
		delta:     make([]float64, n),
		rates:     make([]float64, len(reactants)),
	}
	r.RefreshCache()
	return r, nil
}

// Rate is k times the product of reactant concentrations raised to their coefficients.
func (r *Reaction) Rate(src Source) float64 {
	rate := r.K
	for i, c := range r.Reactants {
		conc := r.cache[i]
		if src == Present {
			conc = c.C
		}
		rate *= pow(conc, r.Stoich[i])
	}
	return rate
}

// Apply advances this reaction alone by one explicit Euler step of size dt.
func (r *Reaction) Apply(dt float64, src Source) {
	rate := r.Rate(src)
	for i, c := range r.Reactants {
		c.C -= r.Stoich[i] * rate * dt
	}
	off := len(r.Reactants)
	for i, c := range r.Products {
		c.C += r.Stoich[off+i] * rate * dt
	}
}

// RefreshCache copies the live concentrations of every participant into the snapshot.
func (r *Reaction) RefreshCache() {
	for i, c := range r.Reactants {
		r.cache[i] = c.C
	}
	off := len(r.Reactants)
	for i, c := range r.Products {
		r.cache[off+i] = c.C
	}
}

// Snapshot returns a copy of the cached concentrations, reactants first.
func (r *Reaction) Snapshot() []float64 {
	return append([]float64(nil), r.cache...)
}

// MixedRates returns the per-reactant rates computed by the last mixed stage.
func (r *Reaction) MixedRates() []float64 {
	return append([]float64(nil), r.rates...)
}

func (r *Reaction) String() string {
	var b strings.Builder
	if r.Name != "" {
		b.WriteString(r.Name)
		b.WriteString(": ")
	}
	writeSide(&b, r.Reactants, r.Stoich, "R")
	b.WriteString(" -> ")
	writeSide(&b, r.Products, r.Stoich[len(r.Reactants):], "P")
	fmt.Fprintf(&b, " (k=%g)", r.K)
	return b.String()
}

func writeSide(b *strings.Builder, chems []*Chemical, stoich []float64, anon string) {
	for i, c := range chems {
		if i > 0 {
			b.WriteString(" + ")
		}
		if stoich[i] != 1 {
			fmt.Fprintf(b, "%g ", stoich[i])
		}
		if c.Name != "" {
			b.WriteString(c.Name)
		} else {
			fmt.Fprintf(b, "%s%d", anon, i+1)
		}
	}
}

// stage computes this step's concentration changes from the snapshot without touching
// live state.
func (r *Reaction) stage(dt float64) {
	rate := r.Rate(Cached)
	n := len(r.Reactants)
	for i := 0; i < n; i++ {
		r.delta[i] = -r.Stoich[i] * rate * dt
	}
	for i := n; i < len(r.delta); i++ {
		r.delta[i] = r.Stoich[i] * rate * dt
	}
}

// stageMixed is the CSTR variant of stage. Reactant i is consumed at a rate built from its
// own snapshot concentration and every co-reactant's outflow estimate; products are formed
// at the overall snapshot rate.
func (r *Reaction) stageMixed(dt float64) {
	n := len(r.Reactants)
	for i := 0; i < n; i++ {
		rate := r.K
		for j, c := range r.Reactants {
			conc := c.Out
			if j == i {
				conc = r.cache[j]
			}
			rate *= pow(conc, r.Stoich[j])
		}
		r.rates[i] = rate
		r.delta[i] = -r.Stoich[i] * rate * dt
	}
	overall := r.Rate(Cached)
	for i := n; i < len(r.delta); i++ {
		r.delta[i] = r.Stoich[i] * overall * dt
	}
}

func (r *Reaction) commit() {
	for i, c := range r.Reactants {
		c.C += r.delta[i]
	}
	off := len(r.Reactants)
	for i, c := range r.Products {
		c.C += r.delta[off+i]
	}
}

func pow(c, s float64) float64 {
	if s == 1 {
		return c
	}
	return math.Pow(c, s)
}
