// cq - an exact-arithmetic 2D polygon arrangement engine
// Copyright (C) 2026
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package heap implements a binary min-heap of caller-owned elements
// that each embed their own current heap position, so Update/Remove/
// Replace can locate and re-heapify an element in O(log n) without a
// separate lookup structure.
package heap

// NoIndex marks an element that is not currently stored in any heap.
const NoIndex = -1

// Elem is implemented by values stored in a Heap. Index returns the
// field holding the element's current slot (initialise it to NoIndex
// before the first insert); SetIndex updates it.
type Elem interface {
	Index() int
	SetIndex(i int)
}

// Less reports whether a has strictly higher priority (sorts earlier)
// than b.
type Less[T Elem] func(a, b T) bool

// Heap is a binary min-heap over elements of type T.
type Heap[T Elem] struct {
	data []T
	less Less[T]
}

// New returns an empty heap using less as the ordering.
func New[T Elem](less Less[T]) *Heap[T] {
	return &Heap[T]{less: less}
}

func parent(pos int) int { return (pos - 1) / 2 }
func child0(pos int) int { return pos*2 + 1 }

func (h *Heap[T]) swap(i, j int) {
	h.data[i], h.data[j] = h.data[j], h.data[i]
	h.data[i].SetIndex(i)
	h.data[j].SetIndex(j)
}

func (h *Heap[T]) up(pos int) {
	for pos > 0 {
		p := parent(pos)
		if !h.less(h.data[pos], h.data[p]) {
			break
		}
		h.swap(pos, p)
		pos = p
	}
}

func (h *Heap[T]) down(pos int) {
	n := len(h.data)
	for {
		c := child0(pos)
		if c >= n {
			break
		}
		if c+1 < n && h.less(h.data[c+1], h.data[c]) {
			c++
		}
		if !h.less(h.data[c], h.data[pos]) {
			break
		}
		h.swap(pos, c)
		pos = c
	}
}

// Make builds a heap from data in O(n), taking ownership of the slice.
// Every element's index is (re)initialised.
func Make[T Elem](data []T, less Less[T]) *Heap[T] {
	h := &Heap[T]{data: data, less: less}
	for i := range h.data {
		h.data[i].SetIndex(i)
	}
	for i := len(h.data)/2 - 1; i >= 0; i-- {
		h.down(i)
	}
	return h
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int { return len(h.data) }

// Min returns the minimum element without removing it. The second
// result is false if the heap is empty.
func (h *Heap[T]) Min() (T, bool) {
	var zero T
	if len(h.data) == 0 {
		return zero, false
	}
	return h.data[0], true
}

// Insert adds x to the heap.
func (h *Heap[T]) Insert(x T) {
	idx := len(h.data)
	h.data = append(h.data, x)
	x.SetIndex(idx)
	h.up(idx)
}

// Update re-heapifies after the element at idx has changed priority.
func (h *Heap[T]) Update(idx int) {
	h.up(idx)
	h.down(idx)
}

// Remove deletes the element at idx (idx==0 removes the minimum) and
// returns it. The removed element's index is set to NoIndex.
func (h *Heap[T]) Remove(idx int) T {
	last := len(h.data) - 1
	x := h.data[idx]
	h.data[idx] = h.data[last]
	h.data[idx].SetIndex(idx)
	h.data = h.data[:last]
	if idx != last {
		h.Update(idx)
	}
	x.SetIndex(NoIndex)
	return x
}

// ExtractMin removes and returns the minimum element. The second result
// is false if the heap was empty.
func (h *Heap[T]) ExtractMin() (T, bool) {
	var zero T
	if len(h.data) == 0 {
		return zero, false
	}
	return h.Remove(0), true
}

// Replace swaps the element at idx for x in one O(log n) pass.
//
//   - idx == NoIndex behaves like Insert(x).
//   - x is the zero value behaves like Remove(idx) (caller should check
//     IsZero itself; typically Replace is only called with a non-zero x,
//     use Remove directly to delete).
//   - if x already occupies idx, this degenerates to Update(idx).
func (h *Heap[T]) Replace(idx int, x T) (old T, removed bool) {
	if idx == NoIndex {
		h.Insert(x)
		return old, false
	}
	cur := h.data[idx]
	if any(cur) == any(x) {
		h.Update(idx)
		return old, false
	}
	h.data[idx] = x
	x.SetIndex(idx)
	cur.SetIndex(NoIndex)
	h.Update(idx)
	return cur, true
}
