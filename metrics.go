package adminsession

import "sync/atomic"

// MetricID identifies an in-process session counter.
type MetricID uint8

const (
	// MetricLoginSuccess counts successful credential exchanges.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or unusable login attempts.
	MetricLoginFailure
	// MetricLogout counts local teardowns initiated through Logout.
	MetricLogout
	// MetricSessionExpired counts expiry-driven teardowns, at boot or while
	// the session was live.
	MetricSessionExpired
	// MetricSessionRestored counts sessions restored from the vault at boot.
	MetricSessionRestored
	// MetricVaultCorrupt counts persisted blobs that failed to decode and
	// were discarded.
	MetricVaultCorrupt
	// MetricRemoteLogoutFailure counts server-side logout calls that failed
	// without blocking local teardown.
	MetricRemoteLogoutFailure
	// MetricExternalSync counts session changes adopted from another process
	// through the vault watch.
	MetricExternalSync

	metricCount
)

// Metrics is a fixed-size set of atomic counters. All methods are safe for
// concurrent use.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Get reads a single counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
