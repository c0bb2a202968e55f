package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticks          atomic.Uint64
	tradesExecuted atomic.Uint64
	tradesRejected atomic.Uint64
	journalErrors  atomic.Uint64
	droppedUpdates atomic.Uint64

	// Tick latency tracking
	tickLatencySumNs atomic.Int64
	tickLatencyCount atomic.Uint64

	// Gauges
	wsClients   atomic.Int32
	subscribers atomic.Int32
	running     atomic.Int32 // 1 = simulation running
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one repricing pass with its latency.
func (m *Metrics) RecordTick(latency time.Duration) {
	m.ticks.Add(1)
	m.tickLatencySumNs.Add(latency.Nanoseconds())
	m.tickLatencyCount.Add(1)
}

// RecordTrade records an executed order.
func (m *Metrics) RecordTrade() {
	m.tradesExecuted.Add(1)
}

// RecordRejection records an order rejected by validation, funds or shares checks.
func (m *Metrics) RecordRejection() {
	m.tradesRejected.Add(1)
}

// RecordJournalError records a failed audit write.
func (m *Metrics) RecordJournalError() {
	m.journalErrors.Add(1)
}

// RecordDropped records a snapshot a slow consumer did not take.
func (m *Metrics) RecordDropped() {
	m.droppedUpdates.Add(1)
}

// IncrementClients increments connected websocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.wsClients.Add(1)
}

// DecrementClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.wsClients.Add(-1)
}

// SetSubscribers sets the current observer count.
func (m *Metrics) SetSubscribers(count int) {
	m.subscribers.Store(int32(count))
}

// SetRunning sets the simulation state (true = ticking).
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Ticks            uint64    `json:"ticks"`
	TradesExecuted   uint64    `json:"trades_executed"`
	TradesRejected   uint64    `json:"trades_rejected"`
	JournalErrors    uint64    `json:"journal_errors"`
	DroppedUpdates   uint64    `json:"dropped_updates"`
	AvgTickLatencyNs int64     `json:"avg_tick_latency_ns"`
	WebsocketClients int32     `json:"websocket_clients"`
	Subscribers      int32     `json:"subscribers"`
	Running          bool      `json:"running"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.tickLatencyCount.Load()
	if count > 0 {
		avgLatency = m.tickLatencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Ticks:            m.ticks.Load(),
		TradesExecuted:   m.tradesExecuted.Load(),
		TradesRejected:   m.tradesRejected.Load(),
		JournalErrors:    m.journalErrors.Load(),
		DroppedUpdates:   m.droppedUpdates.Load(),
		AvgTickLatencyNs: avgLatency,
		WebsocketClients: m.wsClients.Load(),
		Subscribers:      m.subscribers.Load(),
		Running:          m.running.Load() == 1,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticks.Store(0)
	m.tradesExecuted.Store(0)
	m.tradesRejected.Store(0)
	m.journalErrors.Store(0)
	m.droppedUpdates.Store(0)
	m.tickLatencySumNs.Store(0)
	m.tickLatencyCount.Store(0)
	m.wsClients.Store(0)
	m.subscribers.Store(0)
	m.running.Store(0)
}
