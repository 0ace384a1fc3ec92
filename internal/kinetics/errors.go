package kinetics

import "errors"

var (
	// ErrStoichiometry indicates a coefficient list that does not match the species lists.
	ErrStoichiometry = errors.New("kinetics: stoichiometry does not match reactants and products")

	// ErrNonPositiveCoefficient indicates a zero or negative stoichiometric coefficient.
	ErrNonPositiveCoefficient = errors.New("kinetics: stoichiometric coefficients must be positive")

	// ErrNilChemical indicates a reaction referencing a nil species.
	ErrNilChemical = errors.New("kinetics: nil chemical in reaction")

	// ErrUnknownSource indicates a rate source other than cached or present.
	ErrUnknownSource = errors.New("kinetics: unknown rate source")
)
