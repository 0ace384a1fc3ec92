package detector

import (
	"fmt"
	"strings"
)

// Motion is what a firing detector asks the driver to do.
type Motion string

const (
	MotionPrint                    Motion = "print"
	MotionQuench                   Motion = "quench"
	MotionQuenchAndSilent          Motion = "quench_and_silent"
	MotionRecord                   Motion = "record"
	MotionSilent                   Motion = "silent"
	MotionRecordAndSilent          Motion = "record_and_silent"
	MotionRecordAndQuench          Motion = "record_and_quench"
	MotionRecordAndQuenchAndSilent Motion = "record_and_quench_and_silent"
)

// Effect is the (print, quench, record) triple a motion maps to.
type Effect struct {
	Print  bool
	Quench bool
	Record bool
}

var effects = map[Motion]Effect{
	MotionPrint:                    {Print: true},
	MotionQuench:                   {Print: true, Quench: true},
	MotionQuenchAndSilent:          {Quench: true},
	MotionRecord:                   {Print: true, Record: true},
	MotionSilent:                   {},
	MotionRecordAndSilent:          {Record: true},
	MotionRecordAndQuench:          {Print: true, Quench: true, Record: true},
	MotionRecordAndQuenchAndSilent: {Quench: true, Record: true},
}

func (m Motion) Effect() (Effect, error) {
	e, ok := effects[m]
	if !ok {
		return Effect{}, fmt.Errorf("%w: %q", ErrUnknownMotion, string(m))
	}
	return e, nil
}

func ParseMotion(name string) (Motion, error) {
	m := Motion(strings.ToLower(strings.TrimSpace(name)))
	if m == "" {
		return MotionPrint, nil
	}
	if _, err := m.Effect(); err != nil {
		return "", err
	}
	return m, nil
}

// Motions lists every known motion.
func Motions() []Motion {
	return []Motion{
		MotionPrint, MotionQuench, MotionQuenchAndSilent, MotionRecord,
		MotionSilent, MotionRecordAndSilent, MotionRecordAndQuench, MotionRecordAndQuenchAndSilent,
	}
}

// Combine selects how the print flag is merged across detectors firing in one step.
type Combine int

const (
	// Overwrite lets each firing detector replace the print flag, so a later silent
	// detector suppresses an earlier print request. Quench and record always accumulate.
	Overwrite Combine = iota
	// Accumulate ORs the print flag like quench and record.
	Accumulate
)

func (c Combine) String() string {
	if c == Accumulate {
		return "accumulate"
	}
	return "overwrite"
}

func ParseCombine(name string) (Combine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "overwrite", "legacy":
		return Overwrite, nil
	case "accumulate", "or":
		return Accumulate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCombine, name)
	}
}
