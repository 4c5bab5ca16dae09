// Package topk implements a bounded top-k result list: at most k
// (distance, id) pairs, held in a container/heap max-heap for O(log k)
// insertion and returned in ascending distance order by Sorted. This mirrors the reference implementation's MinK_List, which
// callers query for "the current k-th distance" on every insert to decide
// whether a candidate is worth evaluating.
package topk

import "container/heap"

// Neighbor is one candidate result: an id and its exact distance to the
// query.
type Neighbor struct {
	Dist float64
	Id   int32
}

// List holds at most K neighbors, nearest K by distance seen so far.
type List struct {
	k    int
	heap maxHeap // max-heap on Dist, so the worst kept neighbor is at index 0
}

// New returns an empty List bounded to k neighbors.
func New(k int) *List {
	return &List{k: k}
}

// Insert offers (dist, id) to the list. It returns the current k-th
// smallest distance held (or the 1e30 sentinel maxReal if fewer than k candidates have been
// inserted yet), matching MinK_List::insert's return value used to drive
// the search radius and termination checks.
func (l *List) Insert(dist float64, id int32) float64 {
	switch {
	case len(l.heap) < l.k:
		heap.Push(&l.heap, Neighbor{Dist: dist, Id: id})
	case dist < l.heap[0].Dist:
		l.heap[0] = Neighbor{Dist: dist, Id: id}
		heap.Fix(&l.heap, 0)
	}
	if len(l.heap) < l.k {
		return maxReal
	}
	return l.heap[0].Dist
}

// maxReal stands in for the reference implementation's MAXREAL sentinel:
// "no k-th distance yet" because fewer than k candidates have been seen.
const maxReal = 1.0e30

// Len returns the number of neighbors currently held (<= k).
func (l *List) Len() int { return len(l.heap) }

// Sorted returns the held neighbors in ascending distance order. It does
// not mutate the list.
func (l *List) Sorted() []Neighbor {
	cp := make(maxHeap, len(l.heap))
	copy(cp, l.heap)
	out := make([]Neighbor, len(cp))
	for i := len(cp) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&cp).(Neighbor)
	}
	return out
}

// maxHeap is a container/heap.Interface over Neighbor ordered so the
// worst (largest-distance) element is at the root, making eviction of the
// current worst candidate an O(log k) heap-fix.
type maxHeap []Neighbor

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].Dist > h[j].Dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
