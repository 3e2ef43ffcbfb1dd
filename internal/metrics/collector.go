// Package metrics provides in-memory loader statistics.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// ViewMetrics holds aggregated fetch metrics for one view.
type ViewMetrics struct {
	Fetches   int64
	Fallbacks int64
	Stale     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// ViewSnapshot provides computed stats from raw metrics.
type ViewSnapshot struct {
	View         string  `json:"view"`
	Fetches      int64   `json:"fetches"`
	Fallbacks    int64   `json:"fallbacks"`
	Stale        int64   `json:"stale"`
	FallbackRate float64 `json:"fallback_rate"`
	AvgTimeMs    float64 `json:"avg_time_ms"`
	MinTimeMs    int64   `json:"min_time_ms"`
	MaxTimeMs    int64   `json:"max_time_ms"`
}

// Snapshot is the full set of statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64        `json:"uptime_seconds"`
	Views         []ViewSnapshot `json:"views"`
}

// Collector aggregates loader statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	views     map[string]*ViewMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		views:     make(map[string]*ViewMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for a view.
// Caller must hold write lock.
func (c *Collector) getOrCreate(view string) *ViewMetrics {
	m, ok := c.views[view]
	if !ok {
		m = &ViewMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.views[view] = m
	}
	return m
}

// RecordFetch records one completed load of view. fellBack is true when the
// data came from the synthesizer.
func (c *Collector) RecordFetch(view string, duration time.Duration, fellBack bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(view)
	m.Fetches++
	m.TotalTime += duration
	if fellBack {
		m.Fallbacks++
	}
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordStale records a response that was discarded because a newer request
// had been issued.
func (c *Collector) RecordStale(view string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(view).Stale++
}

func snapshotView(name string, m *ViewMetrics) ViewSnapshot {
	snap := ViewSnapshot{View: name, Fetches: m.Fetches, Fallbacks: m.Fallbacks, Stale: m.Stale}
	if m.Fetches == 0 {
		return snap
	}
	snap.FallbackRate = float64(m.Fallbacks) / float64(m.Fetches)
	snap.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Fetches)
	snap.MinTimeMs = m.MinTime.Milliseconds()
	snap.MaxTimeMs = m.MaxTime.Milliseconds()
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics, sorted by view name.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.startTime).Seconds()}
	for name, m := range c.views {
		snap.Views = append(snap.Views, snapshotView(name, m))
	}
	sort.Slice(snap.Views, func(i, j int) bool { return snap.Views[i].View < snap.Views[j].View })
	return snap
}
