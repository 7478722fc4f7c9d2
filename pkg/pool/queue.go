package pool

import "github.com/Sternrassler/catalog-probe/pkg/catalog"

// WorkQueue is the ordered sequence of pending identifiers. Only the
// coordinator goroutine touches it.
type WorkQueue struct {
	items []catalog.Identifier
}

// NewWorkQueue creates a queue holding a copy of ids.
func NewWorkQueue(ids []catalog.Identifier) *WorkQueue {
	items := make([]catalog.Identifier, len(ids))
	copy(items, ids)
	return &WorkQueue{items: items}
}

// PopFront removes and returns up to n identifiers from the front.
func (q *WorkQueue) PopFront(n int) catalog.Batch {
	if n <= 0 || len(q.items) == 0 {
		return catalog.Batch{}
	}
	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make(catalog.Batch, n)
	copy(batch, q.items[:n])
	q.items = q.items[n:]
	return batch
}

// IsEmpty reports whether no identifiers are pending.
func (q *WorkQueue) IsEmpty() bool {
	return len(q.items) == 0
}

// Len returns the number of pending identifiers.
func (q *WorkQueue) Len() int {
	return len(q.items)
}
