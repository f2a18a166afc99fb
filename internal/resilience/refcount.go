package resilience

import "sync"

type refEntry struct {
	count       int64
	reclaimable bool
	walSynced   bool
}

// RefCountGC tracks how many live references a chunk hash has and
// collects hashes once they both (a) transitioned to a zero refcount
// and (b) had their WAL-sync confirmed, in that order. Collecting
// before WAL-sync confirmation is never allowed: Collect only ever
// returns hashes that passed both gates.
//
// Reference-counted rather than a pure time-based sweep (delete
// anything older than maxAge): this deletes anything the index no
// longer points to, once durable.
type RefCountGC struct {
	mu      sync.Mutex
	entries map[string]*refEntry
}

// NewRefCountGC creates an empty RefCountGC.
func NewRefCountGC() *RefCountGC {
	return &RefCountGC{entries: make(map[string]*refEntry)}
}

// Increment records a new live reference to hash, reviving it if it
// had previously been marked reclaimable but not yet collected.
func (g *RefCountGC) Increment(hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[hash]
	if !ok {
		e = &refEntry{}
		g.entries[hash] = e
	}
	e.count++
	e.reclaimable = false
	e.walSynced = false
}

// Decrement removes one live reference to hash. When the count reaches
// zero, hash transitions to reclaimable.
func (g *RefCountGC) Decrement(hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[hash]
	if !ok {
		return
	}
	e.count--
	if e.count <= 0 {
		e.reclaimable = true
	}
}

// ConfirmWALSynced marks hash's reclaimability as durable: the
// container holding its last reference has been fsynced, so it is now
// safe to delete. A no-op for a hash that is not currently reclaimable.
func (g *RefCountGC) ConfirmWALSynced(hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[hash]; ok && e.reclaimable {
		e.walSynced = true
	}
}

// Collect returns every hash that is both reclaimable and WAL-sync
// confirmed, removing them from tracking.
func (g *RefCountGC) Collect() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for hash, e := range g.entries {
		if e.reclaimable && e.walSynced {
			out = append(out, hash)
			delete(g.entries, hash)
		}
	}
	return out
}
