package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreLimitsConcurrency(t *testing.T) {
	sem := NewSemaphore(2)
	var current, maxSeen atomic.Int32
	done := make(chan struct{})

	for i := 0; i < 6; i++ {
		go func() {
			sem.Acquire()
			defer sem.Release()
			n := current.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}

	if maxSeen.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent holders, saw %d", maxSeen.Load())
	}
}

func TestAutoWorkerCountIsBounded(t *testing.T) {
	n := AutoWorkerCount()
	if n < 1 || n > MaxAutoWorkers {
		t.Fatalf("expected auto worker count in [1,%d], got %d", MaxAutoWorkers, n)
	}
}
