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

// Package cq is an exact-arithmetic 2D polygon arrangement engine: a
// plane sweep that takes a multiset of membership-tagged segments and
// reduces them to a snap-rounded, non-crossing arrangement usable for
// boolean combination, path recovery, or triangulation.
package cq

import (
	"hensel.name/cq/cqerr"
	"hensel.name/cq/geomx"
	"hensel.name/cq/internal/dict"
	"hensel.name/cq/internal/heap"
)

// phase gates which auxiliary view of an Edge's union-typed fields is
// live, mirroring the reference implementation's single `phase` field.
type phase int

const (
	phaseInput phase = iota
	phaseIntersected
	phaseReduced
)

// Sweep is the plane-sweep engine. It owns every Edge it creates and
// consumes them monotonically: AddEdge/AddPoly/AddSweep append input,
// Intersect runs phase 1 (exact intersection) and phase 2 (snap
// rounding), and at most one of Reduce/Polygonize/Triangulate consumes
// the result.
type Sweep struct {
	phase phase

	// phase 1 working state
	vertexRoot *dict.Node
	xing       *heap.Heap[*Crossing]
	active     *dict.Node

	// result: every edge surviving intersect()+snap round, in creation
	// order. Phase 2 also indexes them by endpoint for merge-on-emit;
	// see emitResultEdge.
	result     *dict.Node
	resultList []*Edge

	err error
}

// NewSweep returns an empty sweep.
func NewSweep() *Sweep {
	return &Sweep{xing: heap.New[*Crossing](crossingLess)}
}

func crossingLess(a, b *Crossing) bool { return a.Pos.Cmp(b.Pos) < 0 }

// AddEdge pushes one segment tagged with membership into the sweep.
// Order of a, b does not matter; a zero-length segment is dropped.
func (s *Sweep) AddEdge(a, b geomx.Vec2, membership uint64) {
	if a.Eq(b) {
		return
	}
	left, right := a, b
	if left.Cmp(right) > 0 {
		left, right = right, left
	}
	e := newEdge(left, right, membership)
	s.insertVertexEvent(&e.Left)
	s.insertVertexEvent(&e.Right)
}

// AddVLine2 is a convenience bulk entry: consecutive pairs in segs are
// independent segments, all tagged with membership.
func (s *Sweep) AddVLine2(segs []geomx.Vec2, membership uint64) {
	for i := 0; i+1 < len(segs); i += 2 {
		s.AddEdge(segs[i], segs[i+1], membership)
	}
}

// AddPoly adds every edge of a closed polygon (ring[i] to
// ring[(i+1)%len(ring)]), tagged with membership.
func (s *Sweep) AddPoly(ring []geomx.Vec2, membership uint64) {
	n := len(ring)
	for i := 0; i < n; i++ {
		s.AddEdge(ring[i], ring[(i+1)%n], membership)
	}
}

// AddSweep imports another sweep's result set as new input edges,
// re-tagged with membership (callers typically pass the other sweep's
// own membership through unchanged and rely on XOR to dedupe).
func (s *Sweep) AddSweep(other *Sweep, membership uint64) {
	for _, e := range other.resultList {
		if isEdgeDeleted(e) {
			continue
		}
		s.AddEdge(e.Left.Vec2, e.Right.Vec2, membership)
	}
}

func (s *Sweep) insertVertexEvent(v *Vertex) {
	cmp := func(n *dict.Node) int { return vertexAgendaCmp(v, treeGetVertex(n)) }
	s.vertexRoot, _ = dict.Insert(s.vertexRoot, &v.agenda, cmp, dict.DupLast, nil)
}

func treeGetVertex(n *dict.Node) *Vertex { return n.User.(*Vertex) }

// vertexAgendaCmp orders agenda events by (x, y, side: RIGHT before
// LEFT, ccw angle of the opposite endpoint), per spec §4.3.
func vertexAgendaCmp(a, b *Vertex) int {
	if i := a.Vec2.Cmp(b.Vec2); i != 0 {
		return i
	}
	if a.Side != b.Side {
		if a.Side == RightSide {
			return -1
		}
		return 1
	}
	return angleCmp(a, b)
}

// angleCmp orders two same-position, same-side vertices by the
// counter-clockwise pseudo-angle of their opposite endpoint, without
// trigonometry: octant first (by sign/relative-magnitude of the
// direction vector), then exact cross product within an octant.
func angleCmp(a, b *Vertex) int {
	da := otherEnd(a).Vec2.Sub(a.Vec2)
	db := otherEnd(b).Vec2.Sub(b.Vec2)
	ha, hb := halfPlane(da), halfPlane(db)
	if ha != hb {
		if ha < hb {
			return -1
		}
		return 1
	}
	cross := geomx.RightCross3Z(geomx.Vec2{}, da, db)
	return geomx.Sign64(cross)
}

// halfPlane buckets a direction vector into one of 4 quadrants so cross
// products are only ever compared within a 180-degree arc (required for
// a cross product to be a valid angle predicate).
func halfPlane(d geomx.Vec2) int {
	switch {
	case d.Y > 0 || (d.Y == 0 && d.X > 0):
		return 0
	default:
		return 1
	}
}

// Intersect runs phase 1 (exact intersection / overlap collapse) then
// phase 2 (snap rounding), populating the result set. It is an error to
// call any consumer before Intersect succeeds.
func (s *Sweep) Intersect() error {
	if err := s.phase1(); err != nil {
		return err
	}
	s.phase = phaseIntersected
	if err := s.phase2(); err != nil {
		return err
	}
	return nil
}

// peekVertexEvent peeks the smallest pending vertex-agenda event.
func (s *Sweep) peekVertexEvent() *Vertex {
	m := dict.Min(s.vertexRoot)
	if m == nil {
		return nil
	}
	return treeGetVertex(m)
}

// popNext removes and returns whichever of the two agenda heads sorts
// first, breaking position ties RIGHT < CROSS < LEFT as required by
// §4.3. Both results are nil once both agendas are drained.
func (s *Sweep) popNext() (v *Vertex, c *Crossing) {
	v = s.peekVertexEvent()
	c, ok := s.xing.Min()
	if !ok {
		c = nil
	}
	switch {
	case v == nil && c == nil:
		return nil, nil
	case v == nil:
		s.xing.ExtractMin()
		return nil, c
	case c == nil:
		s.vertexRoot = dict.Remove(s.vertexRoot, &v.agenda, nil)
		return v, nil
	}
	i := -c.Pos.CmpVec2(v.Vec2)
	takeVertex := i < 0 || (i == 0 && v.Side == RightSide)
	if takeVertex {
		s.vertexRoot = dict.Remove(s.vertexRoot, &v.agenda, nil)
		return v, nil
	}
	s.xing.ExtractMin()
	return nil, c
}

func (s *Sweep) bounds() (lo, hi geomx.Dim) {
	lo, hi = geomx.DimMax, geomx.DimMin
	for _, e := range s.resultList {
		for _, p := range [2]geomx.Vec2{e.Left.Vec2, e.Right.Vec2} {
			if p.X < lo {
				lo = p.X
			}
			if p.X > hi {
				hi = p.X
			}
		}
	}
	return lo, hi
}

func overflowErr(loc string) error {
	return cqerr.New(cqerr.InputOverflow, loc, "coordinate or cross product outside the exact domain")
}
