package config

import "sort"

func precision(n int) *int { return &n }

var unitPair = []float64{1, 1, 1}

func consecutiveReactions(k1, k2 float64) []ReactionConfig {
	return []ReactionConfig{
		{Name: "r1", Reactants: []string{"A", "B"}, Products: []string{"C"}, Stoich: unitPair, K: k1},
		{Name: "r2", Reactants: []string{"A", "C"}, Products: []string{"D"}, Stoich: unitPair, K: k2},
	}
}

func abcd(a, b float64) []SpeciesConfig {
	// B + C + D is invariant under both steps.
	return []SpeciesConfig{{Name: "A", C: a}, {Name: "B", C: b, Weight: 1}, {Name: "C", Weight: 1}, {Name: "D", Weight: 1}}
}

// chain is A -> B -> C with first-order steps. Outflow mixing only converges for networks
// whose reactions have a single reactant; bimolecular networks settle into a two-state cycle.
func chain(k1, k2 float64) []ReactionConfig {
	return []ReactionConfig{
		{Name: "r1", Reactants: []string{"A"}, Products: []string{"B"}, Stoich: []float64{1, 1}, K: k1},
		{Name: "r2", Reactants: []string{"B"}, Products: []string{"C"}, Stoich: []float64{1, 1}, K: k2},
	}
}

func preset(name string, species []SpeciesConfig, reactions []ReactionConfig, detectors []DetectorConfig, dt float64, steps int) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Species = species
	cfg.Reactions = reactions
	cfg.Detectors = detectors
	cfg.Batch.Dt = dt
	cfg.Batch.Steps = steps
	return cfg
}

var Presets = map[string]*Config{
	"single": preset("single",
		[]SpeciesConfig{{Name: "A", C: 1}, {Name: "B", C: 1}, {Name: "C"}},
		[]ReactionConfig{{Name: "r1", Reactants: []string{"A", "B"}, Products: []string{"C"}, Stoich: unitPair, K: 1}},
		nil, 0.01, 1000),
	"consecutive": preset("consecutive", abcd(1, 1), consecutiveReactions(1, 1),
		[]DetectorConfig{
			{Attribute: "c", Mode: "ratio", Targets: []string{"A", "B"}, Expected: []float64{1.0}, Precision: precision(2), Motion: "print"},
		},
		0.01, 1000),
	"quench": preset("quench", abcd(1, 1), consecutiveReactions(1, 3),
		[]DetectorConfig{
			{Attribute: "c", Mode: "isolated", Targets: []string{"A"}, Expected: []float64{0.01}, Precision: precision(4), Motion: "quench"},
		},
		0.001, 5000),
	"record": preset("record", abcd(5, 1), consecutiveReactions(1, 2),
		[]DetectorConfig{
			{Attribute: "c", Mode: "ratio", Targets: []string{"D", "C"}, Expected: []float64{0.1}, Precision: precision(1), Motion: "record_and_silent"},
			{Attribute: "c", Mode: "ratio", Targets: []string{"D", "C"}, Expected: []float64{0.7}, Precision: precision(1), Motion: "record_and_quench_and_silent"},
		},
		0.001, 5000),
	"cstr": preset("cstr",
		[]SpeciesConfig{{Name: "A", C: 2, Weight: 1}, {Name: "B", Weight: 1}, {Name: "C", Weight: 1}},
		chain(1, 0.5), nil, 0.01, 1000),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
