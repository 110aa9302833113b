package iouring

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the completion-latency histogram buckets in
// nanoseconds. Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for a ring
// instance. Every counter is recorded by the library itself:
// RecordSubmit/RecordSQFull from Submit/GetSQE, and RecordCompletion/
// RecordCQOverflow from CQAdvance/CQESeen as entries are retired. The
// completion latency CQAdvance records is approximate: it measures from
// the last successful Submit flush, not from the specific SQE each CQE
// corresponds to, so it degrades under concurrent submitters racing
// ahead of their completions.
type Metrics struct {
	// SQE lifecycle counters
	Submitted    atomic.Uint64 // SQEs handed to the kernel via Submit/SubmitAndWait
	Completed    atomic.Uint64 // CQEs consumed by the caller
	CompletedErr atomic.Uint64 // CQEs consumed with Res < 0

	// Backpressure and overflow counters
	SQFullEvents  atomic.Uint64 // GetSQE calls that found no free slot
	CQOverflowObs atomic.Uint64 // times CQAdvance saw the kernel's CQ overflow counter change

	// Per-opcode submission counts, indexed by uapi.Opcode
	OpCounts [256]atomic.Uint64

	// Performance tracking
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts); bucket[i] holds the
	// count of completions observed with latency <= LatencyBuckets[i].
	LatencyHistBuckets [numLatencyBuckets]atomic.Uint64

	// Ring lifecycle
	StartTime atomic.Int64 // Setup timestamp (UnixNano)
	StopTime  atomic.Int64 // Close timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSubmit records n SQEs of the given opcode handed to the kernel.
func (m *Metrics) RecordSubmit(opcode uint8, n uint64) {
	m.Submitted.Add(n)
	m.OpCounts[opcode].Add(n)
}

// RecordCompletion records one consumed CQE and the latency the caller
// measured for it (CQAdvance passes the time since the last Submit flush).
func (m *Metrics) RecordCompletion(latencyNs uint64, success bool) {
	m.Completed.Add(1)
	if !success {
		m.CompletedErr.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSQFull records a GetSQE call that found the submission ring full.
func (m *Metrics) RecordSQFull() {
	m.SQFullEvents.Add(1)
}

// RecordCQOverflow records one observed increase of the CQ overflow counter.
func (m *Metrics) RecordCQOverflow() {
	m.CQOverflowObs.Add(1)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHistBuckets[i].Add(1)
		}
	}
}

// Stop marks the ring as closed.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	Submitted    uint64
	Completed    uint64
	CompletedErr uint64

	SQFullEvents  uint64
	CQOverflowObs uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	SubmitIOPS float64
	ErrorRate  float64 // percentage of completions with Res < 0
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Submitted:     m.Submitted.Load(),
		Completed:     m.Completed.Load(),
		CompletedErr:  m.CompletedErr.Load(),
		SQFullEvents:  m.SQFullEvents.Load(),
		CQOverflowObs: m.CQOverflowObs.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.SubmitIOPS = float64(snap.Submitted) / uptimeSeconds
	}

	if snap.Completed > 0 {
		snap.ErrorRate = float64(snap.CompletedErr) / float64(snap.Completed) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHistBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyHistBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyHistBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters to zero (useful for testing).
func (m *Metrics) Reset() {
	m.Submitted.Store(0)
	m.Completed.Store(0)
	m.CompletedErr.Store(0)
	m.SQFullEvents.Store(0)
	m.CQOverflowObs.Store(0)
	for i := range m.OpCounts {
		m.OpCounts[i].Store(0)
	}
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHistBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection.
type Observer interface {
	ObserveSubmit(opcode uint8, n uint64)
	ObserveCompletion(latencyNs uint64, success bool)
	ObserveSQFull()
	ObserveCQOverflow()
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSubmit(uint8, uint64)        {}
func (NoOpObserver) ObserveCompletion(uint64, bool)     {}
func (NoOpObserver) ObserveSQFull()                     {}
func (NoOpObserver) ObserveCQOverflow()                 {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSubmit(opcode uint8, n uint64) {
	o.metrics.RecordSubmit(opcode, n)
}

func (o *MetricsObserver) ObserveCompletion(latencyNs uint64, success bool) {
	o.metrics.RecordCompletion(latencyNs, success)
}

func (o *MetricsObserver) ObserveSQFull() {
	o.metrics.RecordSQFull()
}

func (o *MetricsObserver) ObserveCQOverflow() {
	o.metrics.RecordCQOverflow()
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
