package interaction

// Metrics receives one observation per acknowledgment call.
type Metrics interface {
	RecordAcknowledgment(action Action, kind Kind)
	RecordProtocolViolation(action Action, kind Kind)
	RecordPlatformError(action Action, kind Kind)
	RecordRegistrySize(n int)
}

// NoOpMetrics discards every observation.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordAcknowledgment(Action, Kind)    {}
func (NoOpMetrics) RecordProtocolViolation(Action, Kind) {}
func (NoOpMetrics) RecordPlatformError(Action, Kind)     {}
func (NoOpMetrics) RecordRegistrySize(int)               {}
