package resilience

import "sync/atomic"

// BackpressureGuard gates how much outstanding work a destination may
// have queued against it, using relaxed lock-free counters rather than
// a mutex so producers can check CanAccept on every dispatch without
// contending with each other.
type BackpressureGuard struct {
	maxObjects int64
	maxBytes   int64
	objects    atomic.Int64
	bytes      atomic.Int64
}

// NewBackpressureGuard creates a guard that refuses new work once
// either bound is reached.
func NewBackpressureGuard(maxObjects, maxBytes int64) *BackpressureGuard {
	return &BackpressureGuard{maxObjects: maxObjects, maxBytes: maxBytes}
}

// CanAccept reports whether both the object-count and byte-size bounds
// currently have headroom.
func (g *BackpressureGuard) CanAccept() bool {
	return g.objects.Load() < g.maxObjects && g.bytes.Load() < g.maxBytes
}

// RecordEnqueue accounts for n newly queued objects totaling bytes.
func (g *BackpressureGuard) RecordEnqueue(n, bytesCount int64) {
	g.objects.Add(n)
	g.bytes.Add(bytesCount)
}

// RecordDequeue accounts for n objects totaling bytes leaving the
// queue (completed, failed, or dead-lettered).
func (g *BackpressureGuard) RecordDequeue(n, bytesCount int64) {
	g.objects.Add(-n)
	g.bytes.Add(-bytesCount)
}

// Counts returns the current object and byte counters.
func (g *BackpressureGuard) Counts() (objects, bytesCount int64) {
	return g.objects.Load(), g.bytes.Load()
}
