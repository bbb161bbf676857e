package rtsched

import "container/heap"

// heapKeyFunc extracts the value a heap container orders on. Runnable
// and Pending key on deadline; Aperiodic keys on priority. Both are
// expressed as int64 so one generic container/heap.Interface
// implementation serves all three instantiations.
type heapKeyFunc func(*Thread) int64

// heapContainer is a fixed-capacity binary min-heap over *Thread,
// ordered by keyFunc, implementing container/heap.Interface. It backs
// the Runnable, Pending and Aperiodic containers: a priority queue with
// an index-tracking mixin, generalized to an arbitrary key.
type heapContainer struct {
	tag      ContainerTag
	capacity int
	keyFunc  heapKeyFunc
	items    []*Thread
}

func newHeapContainer(tag ContainerTag, capacity int, keyFunc heapKeyFunc) *heapContainer {
	h := &heapContainer{
		tag:      tag,
		capacity: capacity,
		keyFunc:  keyFunc,
		items:    make([]*Thread, 0, capacity),
	}
	heap.Init(h)
	return h
}

// Len, Less, Swap, Push, Pop implement container/heap.Interface. They
// must only be invoked indirectly through the container/heap package
// functions.

func (h *heapContainer) Len() int { return len(h.items) }

func (h *heapContainer) Less(i, j int) bool {
	return h.keyFunc(h.items[i]) < h.keyFunc(h.items[j])
}

func (h *heapContainer) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].heapIndex = i
	h.items[j].heapIndex = j
}

func (h *heapContainer) Push(x interface{}) {
	t := x.(*Thread)
	t.heapIndex = len(h.items)
	h.items = append(h.items, t)
}

func (h *heapContainer) Pop() interface{} {
	old := h.items
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	h.items = old[:n-1]
	return t
}

// Size returns the number of threads currently held.
func (h *heapContainer) Size() int { return len(h.items) }

// Peek returns the minimum-key thread without removing it, or nil if
// empty. Unlike Dequeue it does not skip tombstones — callers that
// need a live minimum should Dequeue/re-Enqueue or check Status.
func (h *heapContainer) Peek() *Thread {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// Enqueue inserts t, setting its ContainerTag to this container's tag.
// Returns ErrQueueFull past capacity, leaving t untouched.
func (h *heapContainer) Enqueue(t *Thread) error {
	if len(h.items) >= h.capacity {
		return ErrQueueFull
	}
	t.ContainerTag = h.tag
	heap.Push(h, t)
	return nil
}

// Dequeue pops and returns the minimum-key thread, transparently
// skipping and finalizing (ToBeRemoved -> Removed) any tombstoned
// entries it encounters. Returns ErrQueueEmpty if no live thread
// remains.
func (h *heapContainer) Dequeue() (*Thread, error) {
	for len(h.items) > 0 {
		t := heap.Pop(h).(*Thread)
		if t.Status == ToBeRemoved {
			t.Status = Removed
			continue
		}
		return t, nil
	}
	return nil, ErrQueueEmpty
}

// Remove extracts a specific thread by identity via a linear scan.
// Returns ErrThreadNotFound if t is not a member; if t itself is a
// tombstone it is removed, finalized (Removed) and ErrThreadNotFound
// is returned as well.
func (h *heapContainer) Remove(t *Thread) (*Thread, error) {
	idx := -1
	for i, cand := range h.items {
		if cand == t {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrThreadNotFound
	}

	removed := heap.Remove(h, idx).(*Thread)
	if removed.Status == ToBeRemoved {
		removed.Status = Removed
		return nil, ErrThreadNotFound
	}
	return removed, nil
}

// Fix re-establishes heap order after a caller mutates a member
// thread's key in place. The selection engine does not call it: aging
// and re-release change threads that are out of the heap and then
// Enqueue them.
func (h *heapContainer) Fix(t *Thread) {
	if t.heapIndex >= 0 && t.heapIndex < len(h.items) {
		heap.Fix(h, t.heapIndex)
	}
}
