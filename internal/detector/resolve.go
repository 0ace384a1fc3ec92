package detector

// Outcome is the combined effect of all detectors evaluated in one step.
type Outcome struct {
	Print  bool
	Quench bool
	// Fired holds indexes of firing detectors in evaluation order.
	Fired []int
	// Records counts firing record-class detectors; each adds one recorded time point.
	Records int
}

// Resolve evaluates detectors in order and merges the effects of the ones that fire.
// The first evaluation error aborts the step.
func Resolve(detectors []*Detector, elapsed float64, combine Combine) (Outcome, error) {
	var out Outcome
	for i, d := range detectors {
		fired, err := d.Fires(elapsed)
		if err != nil {
			return Outcome{}, err
		}
		if !fired {
			continue
		}
		out.Fired = append(out.Fired, i)
		out.apply(d.effect, combine)
	}
	return out, nil
}

func (o *Outcome) apply(e Effect, combine Combine) {
	if combine == Accumulate {
		o.Print = o.Print || e.Print
	} else {
		o.Print = e.Print
	}
	o.Quench = o.Quench || e.Quench
	if e.Record {
		o.Records++
	}
}
