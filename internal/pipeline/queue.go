package pipeline

import "sync"

// Queue is the single shared mutable collection of pipeline items. All
// mutations replace whole items and bump a version counter; readers get
// value snapshots, so a rendering consumer polling the queue can never
// observe a half-applied update.
type Queue struct {
	mu      sync.RWMutex
	items   []Item
	version uint64
	subs    []chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Append adds items to the end of the queue, preserving order.
func (q *Queue) Append(items ...Item) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.bumpLocked()
	q.mu.Unlock()
}

// Replace swaps the stored item with the same ID for updated. Returns
// false if the item is no longer queued.
func (q *Queue) Replace(updated Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == updated.ID {
			q.items[i] = updated
			q.bumpLocked()
			return true
		}
	}
	return false
}

// ClaimProcessing atomically moves a pending item to Processing and
// returns the updated item. The check and the transition happen under
// one write lock, so racing callers cannot both claim the same item.
func (q *Queue) ClaimProcessing(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			if !q.items[i].Status.CanTransition(StatusProcessing) {
				return Item{}, false
			}
			q.items[i].Status = StatusProcessing
			q.items[i].Progress = 0
			q.bumpLocked()
			return q.items[i], true
		}
	}
	return Item{}, false
}

// Get returns a copy of the item with the given ID.
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i := range q.items {
		if q.items[i].ID == id {
			return q.items[i], true
		}
	}
	return Item{}, false
}

// Remove deletes the item with the given ID and returns it.
func (q *Queue) Remove(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			removed := q.items[i]
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.bumpLocked()
			return removed, true
		}
	}
	return Item{}, false
}

// Clear empties the queue and returns the removed items so the caller
// can release their handles.
func (q *Queue) Clear() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := q.items
	q.items = nil
	q.bumpLocked()
	return removed
}

// Snapshot returns a copy of all items plus the current version.
func (q *Queue) Snapshot() ([]Item, uint64) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out, q.version
}

// Version returns the current mutation counter.
func (q *Queue) Version() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.version
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// HasKey reports whether any queued item has the given identity key.
func (q *Queue) HasKey(key string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i := range q.items {
		if q.items[i].Source.Key() == key {
			return true
		}
	}
	return false
}

// Counts returns the number of pending and done items.
func (q *Queue) Counts() (pending, done int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i := range q.items {
		switch q.items[i].Status {
		case StatusPending:
			pending++
		case StatusDone:
			done++
		}
	}
	return pending, done
}

// CountStatus returns the number of items in the given status.
func (q *Queue) CountStatus(status Status) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for i := range q.items {
		if q.items[i].Status == status {
			n++
		}
	}
	return n
}

// Subscribe returns a channel that receives a coalesced signal after
// every queue mutation. The channel has capacity 1; a slow consumer
// misses intermediate versions, never the latest.
func (q *Queue) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	q.mu.Lock()
	q.subs = append(q.subs, ch)
	q.mu.Unlock()
	return ch
}

func (q *Queue) bumpLocked() {
	q.version++
	for _, ch := range q.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
