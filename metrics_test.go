package iouring

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.Completed != 0 {
		t.Errorf("Expected 0 initial completions, got %d", snap.Completed)
	}

	m.RecordSubmit(1, 2) // OpRead, 2 SQEs
	m.RecordCompletion(1_000_000, true)
	m.RecordCompletion(2_000_000, true)
	m.RecordCompletion(500_000, false)

	snap = m.Snapshot()

	if snap.Submitted != 2 {
		t.Errorf("Expected 2 submitted, got %d", snap.Submitted)
	}
	if snap.Completed != 3 {
		t.Errorf("Expected 3 completed, got %d", snap.Completed)
	}
	if snap.CompletedErr != 1 {
		t.Errorf("Expected 1 completion error, got %d", snap.CompletedErr)
	}

	expectedErrorRate := float64(1) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("Expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsSQFullAndOverflow(t *testing.T) {
	m := NewMetrics()

	m.RecordSQFull()
	m.RecordSQFull()
	m.RecordCQOverflow()

	snap := m.Snapshot()
	if snap.SQFullEvents != 2 {
		t.Errorf("Expected 2 SQ full events, got %d", snap.SQFullEvents)
	}
	if snap.CQOverflowObs != 1 {
		t.Errorf("Expected 1 CQ overflow observation, got %d", snap.CQOverflowObs)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordCompletion(1_000_000, true)
	m.RecordCompletion(2_000_000, true)

	snap := m.Snapshot()

	expectedAvgNs := uint64(1_500_000)
	if snap.AvgLatencyNs != expectedAvgNs {
		t.Errorf("Expected avg latency %d ns, got %d ns", expectedAvgNs, snap.AvgLatencyNs)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1_000_000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1_000_000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordSubmit(1, 1)
	m.RecordCompletion(1_000_000, true)
	m.RecordSQFull()

	snap := m.Snapshot()
	if snap.Submitted == 0 {
		t.Error("Expected some operations before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.Submitted != 0 {
		t.Errorf("Expected 0 submitted after reset, got %d", snap.Submitted)
	}
	if snap.Completed != 0 {
		t.Errorf("Expected 0 completed after reset, got %d", snap.Completed)
	}
	if snap.SQFullEvents != 0 {
		t.Errorf("Expected 0 SQ full events after reset, got %d", snap.SQFullEvents)
	}
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveSubmit(1, 1)
	observer.ObserveCompletion(1_000_000, true)
	observer.ObserveSQFull()
	observer.ObserveCQOverflow()

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)

	metricsObserver.ObserveSubmit(1, 1)
	metricsObserver.ObserveCompletion(1_000_000, true)

	snap := m.Snapshot()
	if snap.Submitted != 1 {
		t.Errorf("Expected 1 submitted from observer, got %d", snap.Submitted)
	}
	if snap.Completed != 1 {
		t.Errorf("Expected 1 completed from observer, got %d", snap.Completed)
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordSubmit(1, 1)

	stopTime := startTime.Add(1 * time.Second)
	m.StopTime.Store(stopTime.UnixNano())

	snap := m.Snapshot()

	if snap.SubmitIOPS < 0.9 || snap.SubmitIOPS > 1.1 {
		t.Errorf("Expected SubmitIOPS ~1.0, got %.2f", snap.SubmitIOPS)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordCompletion(500_000, true) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordCompletion(5_000_000, true) // 5ms
	}
	m.RecordCompletion(50_000_000, true) // 50ms, P99

	snap := m.Snapshot()

	if snap.Completed != 100 {
		t.Errorf("Expected 100 total completions, got %d", snap.Completed)
	}

	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("Expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}

	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("Expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}

	totalInBuckets := uint64(0)
	for i := 0; i < len(snap.LatencyHistogram); i++ {
		totalInBuckets += snap.LatencyHistogram[i]
	}
	if totalInBuckets == 0 {
		t.Error("Expected histogram buckets to be populated")
	}
}
