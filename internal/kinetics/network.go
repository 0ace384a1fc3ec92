package kinetics

// Network is an ordered set of reactions stepped together.
type Network struct {
	reactions []*Reaction
	species   []*Chemical
}

func NewNetwork(reactions ...*Reaction) *Network {
	n := &Network{reactions: reactions}
	seen := make(map[*Chemical]bool)
	for _, r := range reactions {
		for _, c := range r.Reactants {
			if !seen[c] {
				seen[c] = true
				n.species = append(n.species, c)
			}
		}
		for _, c := range r.Products {
			if !seen[c] {
				seen[c] = true
				n.species = append(n.species, c)
			}
		}
	}
	return n
}

func (n *Network) Reactions() []*Reaction { return n.reactions }

// Species lists every participating chemical once, in order of first appearance.
func (n *Network) Species() []*Chemical { return n.species }

func (n *Network) RateConstants() []float64 {
	ks := make([]float64, len(n.reactions))
	for i, r := range n.reactions {
		ks[i] = r.K
	}
	return ks
}

func (n *Network) RefreshCaches() {
	for _, r := range n.reactions {
		r.RefreshCache()
	}
}

// Step advances every reaction by dt.
//
// With Cached the step is a barrier: all deltas are staged from the snapshot, then all are
// committed, then every cache is refreshed. With Present reactions are applied one after
// another against live state, so later reactions see earlier commits.
func (n *Network) Step(dt float64, src Source) {
	if src == Present {
		for _, r := range n.reactions {
			r.Apply(dt, Present)
		}
		n.RefreshCaches()
		return
	}

	for _, r := range n.reactions {
		r.stage(dt)
	}
	for _, r := range n.reactions {
		r.commit()
	}
	n.RefreshCaches()
}

// MixedStep is the CSTR micro-step: per-reactant rates mix the snapshot with each
// co-reactant's outflow estimate. Same stage/commit/refresh barrier as Step.
func (n *Network) MixedStep(dt float64) {
	for _, r := range n.reactions {
		r.stageMixed(dt)
	}
	for _, r := range n.reactions {
		r.commit()
	}
	n.RefreshCaches()
}
