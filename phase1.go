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

package cq

import (
	"hensel.name/cq/geomx"
	"hensel.name/cq/internal/dict"
)

// phase1 drains both agendas in event order, building the active tree
// and collapsing overlaps, until the result is an arrangement of
// non-overlapping edges (fractional crossings may remain; phase2
// resolves them onto the integer grid).
func (s *Sweep) phase1() error {
	for {
		v, c := s.popNext()
		if v == nil && c == nil {
			break
		}
		switch {
		case v != nil && v.Side == LeftSide:
			if err := s.evLeft(v); err != nil {
				return err
			}
		case v != nil:
			s.evRight(v)
		default:
			s.evCross(c)
		}
	}
	return nil
}

// activePointCmp orders an active-tree search key point against the
// edge stored at n: positive if the point lies above the edge's line
// (in the direction of travel, x increasing).
func activePointCmp(point geomx.Vec2) dict.Cmp {
	return func(n *dict.Node) int {
		e := treeGetEdge(n)
		cross := geomx.RightCross3Z(e.Left.Vec2, e.Right.Vec2, point)
		return geomx.Sign64(cross)
	}
}

func (s *Sweep) evLeft(v *Vertex) error {
	e := edgeOf(v)

	cmp := activePointCmp(v.Vec2)
	match, ref := dict.FindRef(s.active, cmp, dict.DupAny)
	if match == nil {
		s.active = dict.InsertRef(s.active, ref, &e.tree, nil)
		s.rescheduleAround(e)
		return nil
	}

	// A tree member's line passes exactly through v. Either a genuine
	// collinear overlap (merge and discard e) or two edges that merely
	// touch or cross at this point (place e adjacent to the match; no
	// valid Ref exists for a duplicate match, see dict.FindRef).
	o := treeGetEdge(match)
	dirE := e.Right.Vec2.Sub(e.Left.Vec2)
	dirO := o.Right.Vec2.Sub(o.Left.Vec2)
	if geomx.RightCross3Z(geomx.Vec2{}, dirE, dirO) == 0 && s.collapseOverlap(o, e) {
		return nil
	}

	s.active = dict.InsertAt(s.active, match, &e.tree, 1, nil)
	s.rescheduleAround(e)
	return nil
}

// collapseOverlap merges e into o when they are collinear and actually
// overlap on a positive-length interval, per spec §4.3's LEFT-event
// overlap collapse. o is mutated in place to cover the shared interval;
// non-shared tails (if any) are spun off as fresh edges re-entering the
// vertex agenda. Returns false (no merge performed) if o and e only
// touch at a point.
func (s *Sweep) collapseOverlap(o, e *Edge) bool {
	lo := e.Left.Vec2 // o is already active, so o.Left <= e.Left
	hi := o.Right.Vec2
	if e.Right.Vec2.Cmp(hi) < 0 {
		hi = e.Right.Vec2
	}
	if lo.Cmp(hi) >= 0 {
		return false
	}

	oldOMembership := o.Membership
	oldORight := o.Right.Vec2
	o.Membership ^= e.Membership

	if oldORight.Cmp(hi) > 0 {
		s.spawnTail(hi, oldORight, oldOMembership)
		s.rekeyRight(o, hi)
	}
	if e.Right.Vec2.Cmp(hi) > 0 {
		s.spawnTail(hi, e.Right.Vec2, e.Membership)
	}

	// e itself is fully absorbed: its RIGHT agenda event, scheduled at
	// creation time, must not fire independently.
	s.vertexRoot = dict.Remove(s.vertexRoot, &e.Right.agenda, nil)
	return true
}

// rekeyRight moves o's RIGHT endpoint (and its pending agenda event) to
// newRight, which must lie strictly before the old one.
func (s *Sweep) rekeyRight(o *Edge, newRight geomx.Vec2) {
	s.vertexRoot = dict.Remove(s.vertexRoot, &o.Right.agenda, nil)
	o.Right.Vec2 = newRight
	s.insertVertexEvent(&o.Right)
}

func (s *Sweep) spawnTail(from, to geomx.Vec2, membership uint64) {
	tail := newEdge(from, to, membership)
	s.insertVertexEvent(&tail.Left)
	s.insertVertexEvent(&tail.Right)
}

// rescheduleAround schedules (or reschedules) crossings between e and
// its new tree neighbours, after e has just been linked in.
func (s *Sweep) rescheduleAround(e *Edge) {
	pred := treeGetEdgeOrNil(dict.Prev(&e.tree))
	succ := treeGetEdgeOrNil(dict.Next(&e.tree))
	if pred != nil {
		s.invalidateNext(pred)
		s.scheduleCrossing(pred, e)
	}
	if succ != nil {
		s.invalidatePrev(succ)
		s.scheduleCrossing(e, succ)
	}
}

func treeGetEdgeOrNil(n *dict.Node) *Edge {
	if n == nil {
		return nil
	}
	return treeGetEdge(n)
}

func (s *Sweep) invalidateNext(e *Edge) {
	if e.NextXing != nil {
		e.NextXing.SomeEdge = nil
		e.NextXing = nil
	}
}

func (s *Sweep) invalidatePrev(e *Edge) {
	if e.PrevXing != nil {
		e.PrevXing.SomeEdge = nil
		e.PrevXing = nil
	}
}

// scheduleCrossing computes the exact intersection of two tree-adjacent
// edges (lower below upper at the current scan position) and, if one
// exists strictly ahead of an endpoint they already share, either routes
// it through the split primitive (integer coordinate, per §4.3) or
// pushes a fractional crossing onto the xing agenda.
func (s *Sweep) scheduleCrossing(lower, upper *Edge) {
	var pt geomx.Vec2If
	kind := geomx.Intersect(&pt, lower.Left.Vec2, lower.Right.Vec2, upper.Left.Vec2, upper.Right.Vec2)
	if kind != geomx.PointIntersect {
		return
	}
	if pt.CmpVec2(lower.Left.Vec2) == 0 || pt.CmpVec2(lower.Right.Vec2) == 0 ||
		pt.CmpVec2(upper.Left.Vec2) == 0 || pt.CmpVec2(upper.Right.Vec2) == 0 {
		return // the two edges merely share an endpoint, not a true crossing
	}

	if pt.X.N == 0 && pt.Y.N == 0 {
		point := pt.Round()
		splitLower := s.splitEdgeAt(lower, point)
		splitUpper := s.splitEdgeAt(upper, point)
		if splitLower {
			s.rescheduleAround(lower)
		}
		if splitUpper {
			s.rescheduleAround(upper)
		}
		return
	}

	c := &Crossing{Pos: pt, SomeEdge: lower, SomeEdgeTB: [2]*Edge{lower, upper}}
	lower.NextXing = c
	upper.PrevXing = c
	s.xing.Insert(c)
}

// splitEdgeAt is the split primitive of §4.3: e is shortened in place to
// end at point, and the remainder is spun off as a fresh edge with the
// same membership, re-entering the vertex agenda. No-op if point is
// already one of e's endpoints.
func (s *Sweep) splitEdgeAt(e *Edge, point geomx.Vec2) bool {
	if point.Eq(e.Left.Vec2) || point.Eq(e.Right.Vec2) {
		return false
	}
	tailMembership := e.Membership
	oldRight := e.Right.Vec2
	s.invalidateNext(e)
	s.invalidatePrev(e)
	s.rekeyRight(e, point)
	s.spawnTail(point, oldRight, tailMembership)
	return true
}

func (s *Sweep) evRight(v *Vertex) {
	e := edgeOf(v)
	pred := treeGetEdgeOrNil(dict.Prev(&e.tree))
	succ := treeGetEdgeOrNil(dict.Next(&e.tree))
	s.invalidateNext(e)
	s.invalidatePrev(e)
	s.active = dict.Remove(s.active, &e.tree, nil)
	if pred != nil && succ != nil {
		s.scheduleCrossing(pred, succ)
	}
	s.resultList = append(s.resultList, e)
}

// evCross resolves a crossing event. Per §4.3, any number of edges may
// cross the sweep line at the very same point at once; every pending
// crossing event at that exact point belongs to the same combinatorial
// event and must be reversed as a single block, not as a cascade of
// independent adjacent-pair swaps (an edge already flipped once by an
// earlier swap in the cascade would otherwise be flipped again against
// a neighbour it was already correctly ordered against). evCross drains
// every other still-pending event sharing c.Pos, walks outward from
// their stored pairs to recover the full contiguous bracket of
// mutually-crossing edges, and reverses that whole bracket atomically.
func (s *Sweep) evCross(c *Crossing) {
	if c.SomeEdge == nil {
		return // invalidated since being scheduled
	}

	group := []*Crossing{c}
	for {
		next, ok := s.xing.Min()
		if !ok || next.Pos.Cmp(c.Pos) != 0 {
			break
		}
		s.xing.ExtractMin()
		if next.SomeEdge == nil {
			continue // already invalidated; drop it from the batch
		}
		group = append(group, next)
	}

	members := make(map[*Edge]bool, 2*len(group))
	for _, xc := range group {
		lo, hi := xc.SomeEdgeTB[0], xc.SomeEdgeTB[1]
		members[lo] = true
		members[hi] = true
		s.invalidateNext(lo)
		s.invalidatePrev(hi)
	}

	// Walk outward from any member to the bracket's low end: the paired
	// events above guarantee the members form one contiguous run in the
	// active tree.
	low := group[0].SomeEdgeTB[0]
	for {
		p := treeGetEdgeOrNil(dict.Prev(&low.tree))
		if p == nil || !members[p] {
			break
		}
		low = p
	}

	bracket := make([]*Edge, 0, len(members))
	cur := low
	for {
		bracket = append(bracket, cur)
		if len(bracket) == len(members) {
			break
		}
		cur = treeGetEdgeOrNil(dict.Next(&cur.tree))
	}

	outerBelow := treeGetEdgeOrNil(dict.Prev(&bracket[0].tree))
	outerAbove := treeGetEdgeOrNil(dict.Next(&bracket[len(bracket)-1].tree))

	// Reverse the block in place: keep bracket[0] a member of the tree
	// throughout and thread every other edge in ahead of it (nearest
	// outerBelow first), which leaves the whole run in reverse order
	// without ever needing an anchor outside the bracket itself.
	anchor := bracket[0]
	at := &anchor.tree
	for i := 1; i < len(bracket); i++ {
		e := bracket[i]
		s.active = dict.Remove(s.active, &e.tree, nil)
		s.active = dict.InsertAt(s.active, at, &e.tree, 0, nil)
		at = &e.tree
	}

	if outerBelow != nil {
		s.invalidateNext(outerBelow)
		s.scheduleCrossing(outerBelow, bracket[len(bracket)-1])
	}
	if outerAbove != nil {
		s.invalidatePrev(outerAbove)
		s.scheduleCrossing(bracket[0], outerAbove)
	}
}
