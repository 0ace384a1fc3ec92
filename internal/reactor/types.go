package reactor

// Trace is the history of a batch run.
type Trace struct {
	Species []string
	Times   []float64
	// Concentrations is indexed [species][time point].
	Concentrations [][]float64
	// Expired is true when every step ran and false when a detector quenched the run.
	Expired bool
	// Recorded holds one time point per firing record-class detector.
	Recorded []float64
	Metrics  map[string]float64
}

// Final returns the last concentration of every species.
func (t *Trace) Final() []float64 {
	out := make([]float64, len(t.Concentrations))
	for i, series := range t.Concentrations {
		if len(series) > 0 {
			out[i] = series[len(series)-1]
		}
	}
	return out
}

// Steps is the number of completed steps.
func (t *Trace) Steps() int {
	if len(t.Times) == 0 {
		return 0
	}
	return len(t.Times) - 1
}

// Observer is notified after every committed step.
type Observer interface {
	OnStep(step int, t float64, c []float64)
}

// Metric summarizes a run from per-step observations.
type Metric interface {
	Name() string
	Observe(c []float64, t float64)
	Value() float64
	Reset()
}

// StateReport is emitted when the detectors of a step request printing.
type StateReport struct {
	Step           int
	Time           float64
	Species        []string
	Concentrations []float64
	RateConstants  []float64
	Fired          []int
	Quenched       bool
}

// Reporter receives state reports.
type Reporter interface {
	Report(r StateReport)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(StateReport)

func (f ReporterFunc) Report(r StateReport) { f(r) }
