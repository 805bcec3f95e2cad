package collector

// Metrics observes collector activity.
type Metrics interface {
	RecordWait(outcome Outcome)
	RecordActive(n int)
}

type NoOpMetrics struct{}

func (NoOpMetrics) RecordWait(Outcome) {}
func (NoOpMetrics) RecordActive(int)   {}
