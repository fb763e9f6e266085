package diskann

import "container/heap"

// candidate is a single traversal hop: an internal node ID and its distance
// to the query. Ties are broken by ascending ID so traversal order (and
// therefore the graph produced by insertion) is reproducible.
type candidate struct {
	id       int32
	distance float64
}

func less(a, b candidate) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.id < b.id
}

// minHeap is the traversal frontier: pop always returns the closest
// unexpanded candidate.
type minHeap struct {
	items []candidate
}

func newMinHeap(capHint int) *minHeap {
	return &minHeap{items: make([]candidate, 0, capHint)}
}

func (h *minHeap) Len() int            { return len(h.items) }
func (h *minHeap) Less(i, j int) bool  { return less(h.items[i], h.items[j]) }
func (h *minHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *minHeap) Push(x interface{})  { h.items = append(h.items, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *minHeap) push(c candidate) { heap.Push(h, c) }

func (h *minHeap) pop() (candidate, bool) {
	if h.Len() == 0 {
		return candidate{}, false
	}
	return heap.Pop(h).(candidate), true
}

// maxHeap is the bounded result set: the top is always the worst
// (farthest) kept candidate, so it can be evicted in O(log ef) when a
// better one arrives.
type maxHeap struct {
	items []candidate
}

func newMaxHeap(capHint int) *maxHeap {
	return &maxHeap{items: make([]candidate, 0, capHint)}
}

func (h *maxHeap) Len() int           { return len(h.items) }
func (h *maxHeap) Less(i, j int) bool { return less(h.items[j], h.items[i]) } // reversed: max on top
func (h *maxHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *maxHeap) Push(x interface{}) { h.items = append(h.items, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *maxHeap) push(c candidate) { heap.Push(h, c) }

func (h *maxHeap) pop() (candidate, bool) {
	if h.Len() == 0 {
		return candidate{}, false
	}
	return heap.Pop(h).(candidate), true
}

func (h *maxHeap) top() (candidate, bool) {
	if h.Len() == 0 {
		return candidate{}, false
	}
	return h.items[0], true
}

// sorted drains the heap and returns its contents ascending by distance.
func (h *maxHeap) sorted() []candidate {
	out := make([]candidate, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		c, _ := h.pop()
		out[i] = c
	}
	return out
}
