package gymgate

import (
	"sync/atomic"
	"time"
)

// MetricID indexes one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful credential exchanges.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricSignupSuccess counts accepted signups.
	MetricSignupSuccess
	// MetricSignupFailure counts rejected signups.
	MetricSignupFailure
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricRestoreSuccess counts restored sessions at startup.
	MetricRestoreSuccess
	// MetricRestoreCorrupt counts restores that hit a corrupt or half
	// persisted state and recovered by clearing it.
	MetricRestoreCorrupt
	// MetricIdentityRefresh counts profile re-fetches.
	MetricIdentityRefresh
	// MetricGuardAllowed counts allowed navigations.
	MetricGuardAllowed
	// MetricGuardDeniedNoToken counts denials for absent tokens.
	MetricGuardDeniedNoToken
	// MetricGuardDeniedInvalidToken counts denials for undecodable tokens.
	MetricGuardDeniedInvalidToken
	// MetricGuardDeniedWrongRole counts role-mismatch denials.
	MetricGuardDeniedWrongRole
	// MetricObserverConflated counts updates lost to slow subscribers.
	MetricObserverConflated
	// MetricGuardLatency is the guard evaluation latency histogram.
	MetricGuardLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// counters are padded to a cache line to avoid false sharing on the guard
// hot path
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed-size set of atomic counters plus one latency
// histogram. All methods are safe for concurrent use and are no-ops on a
// nil or disabled receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a metrics set from configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a guard evaluation latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricGuardLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricGuardLatency].buckets[i])
		}
		s.Histograms[MetricGuardLatency] = buckets
	}

	return s
}

// bucketIndex maps a latency sample onto the fixed bucket bounds
// (5µs, 10µs, 25µs, 50µs, 100µs, 250µs, 500µs, +Inf). Guard evaluations
// are pure in-memory decisions, so the bounds sit in microseconds.
func bucketIndex(d time.Duration) int {
	switch {
	case d <= 5*time.Microsecond:
		return 0
	case d <= 10*time.Microsecond:
		return 1
	case d <= 25*time.Microsecond:
		return 2
	case d <= 50*time.Microsecond:
		return 3
	case d <= 100*time.Microsecond:
		return 4
	case d <= 250*time.Microsecond:
		return 5
	case d <= 500*time.Microsecond:
		return 6
	default:
		return 7
	}
}
