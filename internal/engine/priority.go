package engine

import "container/heap"

// Ordering is the three-way result of comparing two work items.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// Prioritiser compares two work items along one dimension. A chain of
// prioritisers is evaluated in order; the first non-Equal result
// decides the comparison.
type Prioritiser func(a, b *ChunkWorkItem) Ordering

// BySemanticTier orders lower tier numbers (more important) first.
func BySemanticTier(a, b *ChunkWorkItem) Ordering {
	switch {
	case a.Tier < b.Tier:
		return Less
	case a.Tier > b.Tier:
		return Greater
	default:
		return Equal
	}
}

// BySmallestFirst orders shorter chunks first.
func BySmallestFirst(a, b *ChunkWorkItem) Ordering {
	switch {
	case a.Length < b.Length:
		return Less
	case a.Length > b.Length:
		return Greater
	default:
		return Equal
	}
}

// ByOldestFirst orders earlier-queued items first.
func ByOldestFirst(a, b *ChunkWorkItem) Ordering {
	switch {
	case a.QueuedAt.Before(b.QueuedAt):
		return Less
	case a.QueuedAt.After(b.QueuedAt):
		return Greater
	default:
		return Equal
	}
}

// DefaultChain is the default prioritiser chain.
func DefaultChain() []Prioritiser {
	return []Prioritiser{BySemanticTier, BySmallestFirst, ByOldestFirst}
}

// Chain combines prioritisers into a single comparator: the first
// prioritiser to report a non-Equal result decides the order.
func Chain(prioritisers []Prioritiser) func(a, b *ChunkWorkItem) Ordering {
	return func(a, b *ChunkWorkItem) Ordering {
		for _, p := range prioritisers {
			if o := p(a, b); o != Equal {
				return o
			}
		}
		return Equal
	}
}

// WorkQueue is a priority queue of ChunkWorkItems ordered by a
// configurable prioritiser chain, backed by container/heap rather
// than a sorted slice so pop stays O(log n) under steady enqueue.
type WorkQueue struct {
	impl workQueueImpl
}

// NewWorkQueue creates a WorkQueue ordered by compare.
func NewWorkQueue(compare func(a, b *ChunkWorkItem) Ordering) *WorkQueue {
	q := &WorkQueue{impl: workQueueImpl{compare: compare}}
	heap.Init(&q.impl)
	return q
}

// Push adds item to the queue.
func (q *WorkQueue) Push(item *ChunkWorkItem) {
	heap.Push(&q.impl, item)
}

// Pop removes and returns the highest-priority item, or nil if empty.
func (q *WorkQueue) Pop() *ChunkWorkItem {
	if q.impl.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.impl).(*ChunkWorkItem)
}

// Len reports how many items remain queued.
func (q *WorkQueue) Len() int {
	return q.impl.Len()
}

type workQueueImpl struct {
	items   []*ChunkWorkItem
	compare func(a, b *ChunkWorkItem) Ordering
}

func (h workQueueImpl) Len() int { return len(h.items) }

func (h workQueueImpl) Less(i, j int) bool {
	return h.compare(h.items[i], h.items[j]) == Less
}

func (h workQueueImpl) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *workQueueImpl) Push(x any) {
	h.items = append(h.items, x.(*ChunkWorkItem))
}

func (h *workQueueImpl) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}
