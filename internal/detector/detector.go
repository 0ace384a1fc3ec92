package detector

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/chemgaloo/internal/kinetics"
)

// Attribute is the quantity a detector measures.
type Attribute int

const (
	Concentration Attribute = iota
	Time
	// Temperature is declared for configuration files but rejected by New.
	Temperature
)

func (a Attribute) String() string {
	switch a {
	case Concentration:
		return "c"
	case Time:
		return "time"
	case Temperature:
		return "temp"
	default:
		return fmt.Sprintf("attribute(%d)", int(a))
	}
}

func ParseAttribute(name string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "c", "concentration":
		return Concentration, nil
	case "time", "t":
		return Time, nil
	case "temp", "temperature":
		return Temperature, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
}

// Mode is how concentration targets are compared with the expected values.
type Mode int

const (
	// Isolated fires when any target matches its own expected value.
	Isolated Mode = iota
	// Ratio fires when targets[0]/targets[1] matches expected[0].
	Ratio
)

func (m Mode) String() string {
	if m == Ratio {
		return "ratio"
	}
	return "isolated"
}

func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "isolated":
		return Isolated, nil
	case "ratio":
		return Ratio, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// DefaultPrecision is the number of decimal digits used when none is configured.
const DefaultPrecision = 4

// MaxPrecision is the largest digit count for which 10^precision is finite.
const MaxPrecision = 308

// ValidatePrecision accepts 0 through MaxPrecision decimal digits.
func ValidatePrecision(precision int) error {
	if precision < 0 || precision > MaxPrecision {
		return fmt.Errorf("%w: %d (want 0..%d)", ErrPrecisionRange, precision, MaxPrecision)
	}
	return nil
}

// Detector is one monitoring rule evaluated after every step.
type Detector struct {
	Name      string
	Attribute Attribute
	Mode      Mode
	Targets   []*kinetics.Chemical
	Expected  []float64
	Precision int
	Motion    Motion

	effect Effect
}

// New validates the rule and resolves its motion.
func New(attr Attribute, mode Mode, targets []*kinetics.Chemical, expected []float64, precision int, motion Motion) (*Detector, error) {
	effect, err := motion.Effect()
	if err != nil {
		return nil, err
	}
	if err := ValidatePrecision(precision); err != nil {
		return nil, err
	}

	switch attr {
	case Concentration:
		if err := validateTargets(mode, targets, expected); err != nil {
			return nil, err
		}
	case Time:
		if len(expected) != 1 {
			return nil, fmt.Errorf("%w: time detector needs one threshold, got %d", ErrTargetMismatch, len(expected))
		}
	case Temperature:
		return nil, fmt.Errorf("%w: temperature detection", ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAttribute, int(attr))
	}

	return &Detector{
		Attribute: attr,
		Mode:      mode,
		Targets:   targets,
		Expected:  append([]float64(nil), expected...),
		Precision: precision,
		Motion:    motion,
		effect:    effect,
	}, nil
}

func validateTargets(mode Mode, targets []*kinetics.Chemical, expected []float64) error {
	for _, c := range targets {
		if c == nil {
			return fmt.Errorf("%w: nil target", ErrTargetMismatch)
		}
	}
	switch mode {
	case Isolated:
		if len(targets) == 0 || len(targets) != len(expected) {
			return fmt.Errorf("%w: %d targets, %d values", ErrTargetMismatch, len(targets), len(expected))
		}
	case Ratio:
		if len(targets) != 2 || len(expected) != 1 {
			return fmt.Errorf("%w: ratio needs 2 targets and 1 value, got %d and %d", ErrTargetMismatch, len(targets), len(expected))
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	return nil
}

func (d *Detector) Effect() Effect { return d.effect }

// Fires reports whether the rule matches the current species state. elapsed is the newest
// time point of the run.
func (d *Detector) Fires(elapsed float64) (bool, error) {
	switch d.Attribute {
	case Concentration:
		if d.Mode == Ratio {
			den := d.Targets[1].C
			if den == 0 {
				return false, ErrZeroDenominator
			}
			return matches(d.Targets[0].C/den-d.Expected[0], d.Precision), nil
		}
		for i, c := range d.Targets {
			if matches(c.C-d.Expected[i], d.Precision) {
				return true, nil
			}
		}
		return false, nil
	case Time:
		return elapsed > d.Expected[0], nil
	default:
		return false, fmt.Errorf("%w: %s detection", ErrNotImplemented, d.Attribute)
	}
}

// matches reports whether |diff| rounds to zero at the given number of decimal digits.
func matches(diff float64, precision int) bool {
	return math.RoundToEven(math.Abs(diff)*math.Pow10(precision)) == 0
}

func (d *Detector) String() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%s/%s/%s", d.Attribute, d.Mode, d.Motion)
}
