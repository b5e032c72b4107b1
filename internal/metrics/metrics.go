package metrics

import (
	"sync"
	"time"
)

const defaultWindow = 128

type sample struct {
	latency time.Duration
	ok      bool
}

type providerStats struct {
	mu       sync.Mutex
	window   []sample
	next     int
	filled   bool
	requests int64
	failures int64
}

// Snapshot is a point-in-time view of one provider's rolling statistics.
type Snapshot struct {
	Provider     string
	Requests     int64
	Failures     int64
	SuccessRate  float64
	AvgLatencyMs float64
}

// Registry keeps rolling latency and success statistics per provider over a
// bounded window of recent calls. Totals are lifetime counters; rates and
// latencies reflect only the window.
type Registry struct {
	mu         sync.RWMutex
	windowSize int
	providers  map[string]*providerStats
}

// NewRegistry builds a registry with the given rolling window size per
// provider (<=0 uses the default).
func NewRegistry(windowSize int) *Registry {
	if windowSize <= 0 {
		windowSize = defaultWindow
	}
	return &Registry{windowSize: windowSize, providers: make(map[string]*providerStats)}
}

func (r *Registry) stats(provider string) *providerStats {
	r.mu.RLock()
	ps, ok := r.providers[provider]
	r.mu.RUnlock()
	if ok {
		return ps
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ps, ok = r.providers[provider]; ok {
		return ps
	}
	ps = &providerStats{window: make([]sample, r.windowSize)}
	r.providers[provider] = ps
	return ps
}

// Record adds one call observation for a provider.
func (r *Registry) Record(provider string, latency time.Duration, ok bool) {
	ps := r.stats(provider)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.window[ps.next] = sample{latency: latency, ok: ok}
	ps.next++
	if ps.next == len(ps.window) {
		ps.next = 0
		ps.filled = true
	}
	ps.requests++
	if !ok {
		ps.failures++
	}
}

// Snapshot returns rolling statistics for one provider.
func (r *Registry) Snapshot(provider string) Snapshot {
	ps := r.stats(provider)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	size := ps.next
	if ps.filled {
		size = len(ps.window)
	}

	snap := Snapshot{Provider: provider, Requests: ps.requests, Failures: ps.failures}
	if size == 0 {
		return snap
	}

	var okCount int
	var totalLatency time.Duration
	for i := 0; i < size; i++ {
		s := ps.window[i]
		if s.ok {
			okCount++
		}
		totalLatency += s.latency
	}

	snap.SuccessRate = float64(okCount) / float64(size)
	snap.AvgLatencyMs = float64(totalLatency.Milliseconds()) / float64(size)
	return snap
}

// Providers lists all providers observed so far.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
