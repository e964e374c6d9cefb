package graph

import "container/heap"

// item is a single (distance, node) pair tracked by a candidateQueue.
type item struct {
	node     uint64
	distance float32
	index    int
}

// candidateQueue implements container/heap.Interface over items, and can act
// as either a min-heap (order=false, closest-first — used for the beam
// search frontier) or a max-heap (order=true, farthest-first — used to
// bound the current top-ef result set), following the teacher's
// queue.PriorityQueue split-personality design.
type candidateQueue struct {
	order bool
	items []*item
}

var _ heap.Interface = (*candidateQueue)(nil)

func newCandidateQueue(order bool) *candidateQueue {
	q := &candidateQueue{order: order}
	heap.Init(q)
	return q
}

func (q *candidateQueue) Len() int { return len(q.items) }

func (q *candidateQueue) Less(i, j int) bool {
	if !q.order {
		return q.items[i].distance < q.items[j].distance
	}
	return q.items[i].distance > q.items[j].distance
}

func (q *candidateQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index, q.items[j].index = i, j
}

func (q *candidateQueue) Push(x any) {
	it := x.(*item)
	it.index = len(q.items)
	q.items = append(q.items, it)
}

func (q *candidateQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	q.items = old[:n-1]
	return it
}

// top returns the head of the heap without removing it.
func (q *candidateQueue) top() *item {
	return q.items[0]
}

func (q *candidateQueue) pushItem(node uint64, distance float32) {
	heap.Push(q, &item{node: node, distance: distance})
}

func (q *candidateQueue) popItem() *item {
	return heap.Pop(q).(*item)
}

// sortedAscending returns a copy of a queue's contents sorted by ascending
// distance, regardless of the queue's own heap order; the queue itself is
// left unchanged.
func sortedAscending(q *candidateQueue) []item {
	out := make([]item, len(q.items))
	for i, it := range q.items {
		out[i] = *it
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].distance < out[j-1].distance; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
