package reactor

import "log/slog"

// LogReporter writes state reports as structured log records.
type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (l *LogReporter) Report(r StateReport) {
	attrs := make([]any, 0, len(r.Species)+10)
	attrs = append(attrs, "step", r.Step, "time", r.Time, "detectors", r.Fired, "quenched", r.Quenched, "k", r.RateConstants)
	for i, name := range r.Species {
		attrs = append(attrs, slog.Float64(name, r.Concentrations[i]))
	}
	l.logger.Info("detector state report", attrs...)
}
