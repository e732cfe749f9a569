// Package merge lazily combines independently-sorted candidate streams into
// one globally ascending sequence.
package merge

import "container/heap"

// Candidate is a scored, not-yet-accepted song proposal. Lower scores rank
// better. Exactly one of the reference fields is typically set, mirroring
// where the candidate came from.
type Candidate struct {
	Score    float64
	Artist   string
	Title    string
	Filename string
	Tags     []string
	Source   string
	Loved    bool
}

// Stream yields candidates in ascending score order. Next returns false once
// the stream is exhausted.
type Stream interface {
	Next() (Candidate, bool)
}

// SliceStream adapts a pre-sorted slice.
type SliceStream struct {
	items []Candidate
	pos   int
}

// NewSliceStream wraps items, which must already be sorted ascending.
func NewSliceStream(items []Candidate) *SliceStream {
	return &SliceStream{items: items}
}

// Next implements Stream.
func (s *SliceStream) Next() (Candidate, bool) {
	if s.pos >= len(s.items) {
		return Candidate{}, false
	}
	c := s.items[s.pos]
	s.pos++
	return c, true
}

// FuncStream adapts a generator function.
type FuncStream func() (Candidate, bool)

// Next implements Stream.
func (f FuncStream) Next() (Candidate, bool) { return f() }

type heapEntry struct {
	head   Candidate
	stream Stream
	order  int
}

type streamHeap []heapEntry

func (h streamHeap) Len() int { return len(h) }

func (h streamHeap) Less(i, j int) bool {
	if h[i].head.Score != h[j].head.Score {
		return h[i].head.Score < h[j].head.Score
	}
	// Equal scores keep stream registration order for deterministic output.
	return h[i].order < h[j].order
}

func (h streamHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *streamHeap) Push(x any) { *h = append(*h, x.(heapEntry)) }

func (h *streamHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// Merge returns a stream yielding the union of all input streams in globally
// ascending score order. It is lazy: each input is pulled at most one element
// ahead of what has been yielded, so early termination downstream stops
// upstream consumption too. Empty inputs are dropped up front.
func Merge(streams ...Stream) Stream {
	h := make(streamHeap, 0, len(streams))
	for i, s := range streams {
		if s == nil {
			continue
		}
		if head, ok := s.Next(); ok {
			h = append(h, heapEntry{head: head, stream: s, order: i})
		}
	}
	heap.Init(&h)

	return FuncStream(func() (Candidate, bool) {
		if h.Len() == 0 {
			return Candidate{}, false
		}
		entry := h[0]
		if next, ok := entry.stream.Next(); ok {
			h[0] = heapEntry{head: next, stream: entry.stream, order: entry.order}
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
		return entry.head, true
	})
}
