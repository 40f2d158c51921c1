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

package heap

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

type item struct {
	pri int
	idx int
}

func (it *item) Index() int     { return it.idx }
func (it *item) SetIndex(i int) { it.idx = i }

func newItem(pri int) *item { return &item{pri: pri, idx: NoIndex} }

func less(a, b *item) bool { return a.pri < b.pri }

func TestInsertExtractOrder(t *testing.T) {
	h := New[*item](less)
	values := []int{5, 3, 8, 1, 9, 2, 7}
	for _, v := range values {
		h.Insert(newItem(v))
	}
	if h.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(values))
	}

	sort.Ints(values)
	for _, want := range values {
		got, ok := h.ExtractMin()
		if !ok {
			t.Fatalf("ExtractMin: heap empty early")
		}
		if got.pri != want {
			t.Fatalf("ExtractMin() = %d, want %d", got.pri, want)
		}
	}
	if _, ok := h.ExtractMin(); ok {
		t.Fatalf("ExtractMin on empty heap returned ok=true")
	}
}

func TestMakeHeapifies(t *testing.T) {
	values := []int{9, 1, 8, 2, 7, 3, 6, 4, 5}
	data := make([]*item, len(values))
	for i, v := range values {
		data[i] = &item{pri: v, idx: NoIndex}
	}
	h := Make(data, less)

	sort.Ints(values)
	for _, want := range values {
		got, ok := h.ExtractMin()
		if !ok || got.pri != want {
			t.Fatalf("ExtractMin() = %v, ok=%v; want %d", got, ok, want)
		}
	}
}

func TestUpdateAfterPriorityChange(t *testing.T) {
	h := New[*item](less)
	a, b, c := newItem(10), newItem(20), newItem(30)
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	b.pri = 1
	h.Update(b.Index())

	got, _ := h.Min()
	if got != b {
		t.Fatalf("Min() after Update = %v, want b", got)
	}
}

func TestRemoveArbitrary(t *testing.T) {
	h := New[*item](less)
	items := make([]*item, 0, 8)
	for _, v := range []int{4, 2, 9, 1, 6, 8, 3} {
		it := newItem(v)
		items = append(items, it)
		h.Insert(it)
	}

	target := items[2] // pri 9
	idx := target.Index()
	removed := h.Remove(idx)
	if removed != target {
		t.Fatalf("Remove returned %v, want %v", removed, target)
	}
	if removed.Index() != NoIndex {
		t.Fatalf("removed element's index = %d, want NoIndex", removed.Index())
	}

	var rest []int
	for h.Len() > 0 {
		x, _ := h.ExtractMin()
		rest = append(rest, x.pri)
	}
	want := []int{1, 2, 3, 4, 6, 8}
	if len(rest) != len(want) {
		t.Fatalf("remaining = %v, want %v", rest, want)
	}
	for i := range want {
		if rest[i] != want[i] {
			t.Fatalf("remaining = %v, want %v", rest, want)
		}
	}
}

func TestReplace(t *testing.T) {
	h := New[*item](less)
	a := newItem(5)
	h.Insert(a)
	b := newItem(2)

	old, removed := h.Replace(a.Index(), b)
	if !removed || old != a {
		t.Fatalf("Replace() = (%v, %v), want (a, true)", old, removed)
	}
	if a.Index() != NoIndex {
		t.Fatalf("replaced element's index = %d, want NoIndex", a.Index())
	}
	got, _ := h.Min()
	if got != b {
		t.Fatalf("Min() after Replace = %v, want b", got)
	}

	// idx == NoIndex behaves like Insert.
	c := newItem(100)
	if _, removed := h.Replace(NoIndex, c); removed {
		t.Fatalf("Replace(NoIndex, ...) reported removed=true")
	}
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
}

// TestHeapPropertyRandom checks the heap always extracts in sorted order
// for arbitrary insert/remove sequences.
func TestHeapPropertyRandom(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := New[*item](less)
		var live []*item

		n := rapid.IntRange(1, 64).Draw(rt, "n")
		for range n {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0, 1:
				it := newItem(rapid.IntRange(-50, 50).Draw(rt, "pri"))
				h.Insert(it)
				live = append(live, it)
			case 2:
				if len(live) == 0 {
					continue
				}
				i := rapid.IntRange(0, len(live)-1).Draw(rt, "which")
				target := live[i]
				h.Remove(target.Index())
				live = append(live[:i], live[i+1:]...)
			}
		}

		want := make([]int, len(live))
		for i, it := range live {
			want[i] = it.pri
		}
		sort.Ints(want)

		var got []int
		for h.Len() > 0 {
			x, _ := h.ExtractMin()
			got = append(got, x.pri)
		}
		if len(got) != len(want) {
			rt.Fatalf("extracted %d elements, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("extracted[%d] = %d, want %d (full: %v vs %v)", i, got[i], want[i], got, want)
			}
		}
	})
}
