package engine

import "runtime"

// MaxAutoWorkers caps the auto-sized worker pool regardless of how
// many logical cores are detected.
const MaxAutoWorkers = 16

// Semaphore is a buffered-channel counting semaphore gating how many
// per-file workers may run concurrently.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a Semaphore with the given permit count. A
// non-positive size auto-sizes to min(2*logical_cores, MaxAutoWorkers).
func NewSemaphore(size int) *Semaphore {
	if size <= 0 {
		size = AutoWorkerCount()
	}
	return &Semaphore{slots: make(chan struct{}, size)}
}

// AutoWorkerCount computes the default concurrency: twice the
// logical core count, capped at MaxAutoWorkers.
func AutoWorkerCount() int {
	n := 2 * runtime.NumCPU()
	if n > MaxAutoWorkers {
		n = MaxAutoWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	s.slots <- struct{}{}
}

// Release returns a permit. Safe to defer immediately after Acquire so
// the permit is released on every exit path.
func (s *Semaphore) Release() {
	<-s.slots
}
