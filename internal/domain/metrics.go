package domain

// MetricsRecorder counts operation outcomes. Outcome is "ok" or a rejection code.
type MetricsRecorder interface {
	RecordRegistration(outcome string)
	RecordCheckIn(outcome string)
	RecordRetry(operation string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRegistration(string) {}
func (NopMetrics) RecordCheckIn(string)      {}
func (NopMetrics) RecordRetry(string)        {}

// OutcomeOf maps an operation result to a metrics label.
func OutcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code := CodeOf(err); code != "" {
		return code
	}
	return string(KindOf(err))
}
