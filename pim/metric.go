package pim

import "sync/atomic"

// EngineMetrics contains atomic metrics for a delivery engine.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type EngineMetrics struct {
	// FrameSendCount indicates the number of transmit frames written, retries included.
	FrameSendCount atomic.Uint64
	// EnableSendCount indicates the number of enable frames written.
	EnableSendCount atomic.Uint64
	// RetryCount indicates the number of retransmissions.
	RetryCount atomic.Uint64

	// AckCount indicates the number of commands resolved Acknowledged.
	AckCount atomic.Uint64
	// NotAckCount indicates the number of commands resolved NotAcknowledged.
	NotAckCount atomic.Uint64

	// UnsolicitedCount indicates the number of unsolicited events forwarded.
	UnsolicitedCount atomic.Uint64
	// UnrecognizedCount indicates the number of lines ignored.
	UnrecognizedCount atomic.Uint64

	// QueueLengthGauge indicates the number of commands waiting in the backlog.
	QueueLengthGauge atomic.Int64
}

func (m *EngineMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *EngineMetrics) incEnableSendCount() {
	m.EnableSendCount.Add(1)
}

func (m *EngineMetrics) incRetryCount() {
	m.RetryCount.Add(1)
}

func (m *EngineMetrics) incAckCount() {
	m.AckCount.Add(1)
}

func (m *EngineMetrics) incNotAckCount() {
	m.NotAckCount.Add(1)
}

func (m *EngineMetrics) incUnsolicitedCount() {
	m.UnsolicitedCount.Add(1)
}

func (m *EngineMetrics) incUnrecognizedCount() {
	m.UnrecognizedCount.Add(1)
}

func (m *EngineMetrics) incQueueLengthGauge() {
	m.QueueLengthGauge.Add(1)
}

func (m *EngineMetrics) decQueueLengthGauge() {
	m.QueueLengthGauge.Add(-1)
}
