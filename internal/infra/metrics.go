package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight run observability.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	runsStarted     atomic.Uint64
	runsFatal       atomic.Uint64
	cyclesCompleted atomic.Uint64
	swapsAttempted  atomic.Uint64
	swapsSucceeded  atomic.Uint64
	swapsFailed     atomic.Uint64

	// Latency tracking (successful swaps only)
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRunStarted records a run leaving Idle.
func (m *Metrics) RecordRunStarted() {
	m.runsStarted.Add(1)
}

// RecordRunFatal records a run aborted by a fatal error.
func (m *Metrics) RecordRunFatal() {
	m.runsFatal.Add(1)
}

func (m *Metrics) RecordCycle() {
	m.cyclesCompleted.Add(1)
}

// RecordSwap records one swap action outcome with its end-to-end latency.
func (m *Metrics) RecordSwap(ok bool, latency time.Duration) {
	m.swapsAttempted.Add(1)
	if !ok {
		m.swapsFailed.Add(1)
		return
	}
	m.swapsSucceeded.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RunsStarted     uint64
	RunsFatal       uint64
	CyclesCompleted uint64
	SwapsAttempted  uint64
	SwapsSucceeded  uint64
	SwapsFailed     uint64
	AvgSwapLatency  time.Duration
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		RunsStarted:     m.runsStarted.Load(),
		RunsFatal:       m.runsFatal.Load(),
		CyclesCompleted: m.cyclesCompleted.Load(),
		SwapsAttempted:  m.swapsAttempted.Load(),
		SwapsSucceeded:  m.swapsSucceeded.Load(),
		SwapsFailed:     m.swapsFailed.Load(),
		AvgSwapLatency:  time.Duration(avgLatency),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.runsStarted.Store(0)
	m.runsFatal.Store(0)
	m.cyclesCompleted.Store(0)
	m.swapsAttempted.Store(0)
	m.swapsSucceeded.Store(0)
	m.swapsFailed.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
