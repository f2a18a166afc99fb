package engine

import (
	"testing"
	"time"
)

func TestDefaultChainOrdersBySemanticTierFirst(t *testing.T) {
	compare := Chain(DefaultChain())
	critical := &ChunkWorkItem{Tier: TierCritical, Length: 1000, QueuedAt: time.Unix(100, 0)}
	bulk := &ChunkWorkItem{Tier: TierBulk, Length: 1, QueuedAt: time.Unix(1, 0)}

	if compare(critical, bulk) != Less {
		t.Fatal("expected critical tier to sort before bulk tier regardless of size/age")
	}
}

func TestDefaultChainFallsBackToSmallestFirst(t *testing.T) {
	compare := Chain(DefaultChain())
	small := &ChunkWorkItem{Tier: TierBulk, Length: 10, QueuedAt: time.Unix(100, 0)}
	large := &ChunkWorkItem{Tier: TierBulk, Length: 1000, QueuedAt: time.Unix(1, 0)}

	if compare(small, large) != Less {
		t.Fatal("expected smaller chunk to sort first within the same tier")
	}
}

func TestDefaultChainFallsBackToOldestFirst(t *testing.T) {
	compare := Chain(DefaultChain())
	older := &ChunkWorkItem{Tier: TierBulk, Length: 100, QueuedAt: time.Unix(1, 0)}
	newer := &ChunkWorkItem{Tier: TierBulk, Length: 100, QueuedAt: time.Unix(100, 0)}

	if compare(older, newer) != Less {
		t.Fatal("expected older item to sort first when tier and size tie")
	}
}

func TestWorkQueuePopsInPriorityOrder(t *testing.T) {
	q := NewWorkQueue(Chain(DefaultChain()))
	q.Push(&ChunkWorkItem{Index: 1, Tier: TierBulk, Length: 100, QueuedAt: time.Unix(1, 0)})
	q.Push(&ChunkWorkItem{Index: 2, Tier: TierCritical, Length: 9999, QueuedAt: time.Unix(2, 0)})
	q.Push(&ChunkWorkItem{Index: 3, Tier: TierBulk, Length: 10, QueuedAt: time.Unix(3, 0)})

	first := q.Pop()
	if first.Index != 2 {
		t.Fatalf("expected critical-tier item first, got index %d", first.Index)
	}
	second := q.Pop()
	if second.Index != 3 {
		t.Fatalf("expected smallest bulk item second, got index %d", second.Index)
	}
	third := q.Pop()
	if third.Index != 1 {
		t.Fatalf("expected remaining bulk item third, got index %d", third.Index)
	}
	if q.Pop() != nil {
		t.Fatal("expected nil from an empty queue")
	}
}
