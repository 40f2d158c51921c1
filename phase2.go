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
	"hensel.name/cq/cqerr"
	"hensel.name/cq/geomx"
)

// snapConvergenceLimit bounds the number of hot-pixel resolutions
// phase2 will attempt. The integer grid is finite (CQDimMin..CQDimMax),
// so snap rounding always converges; this is a defensive cutoff against
// a malformed comparator ever producing a cycle, not an expected path.
const snapConvergenceLimit = 1 << 20

// phase2 resolves every remaining fractional crossing left in the
// phase-1 result onto the integer grid (§4.4). Each hot pixel is
// resolved as a unit: every result edge passing through it is split at
// the pixel origin. A final pass merges edges that end up with
// identical endpoints, XORing membership and dropping any that cancel
// to zero.
func (s *Sweep) phase2() error {
	for iter := 0; iter < snapConvergenceLimit; iter++ {
		a, b, pt, ok := s.findFractionalCrossing()
		if !ok {
			s.mergeResultDuplicates()
			return nil
		}
		point := pt.Round()
		s.resolveHotPixel(point, a, b)
	}
	return cqerr.New(cqerr.InvalidArrangement, "phase2", "snap rounding did not converge within the grid")
}

// findFractionalCrossing scans the live result edges for a pair whose
// exact intersection is not already one of their shared endpoints and
// does not fall on the integer grid.
func (s *Sweep) findFractionalCrossing() (a, b *Edge, pt geomx.Vec2If, ok bool) {
	live := s.liveResultEdges()
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			ei, ej := live[i], live[j]
			var p geomx.Vec2If
			kind := geomx.Intersect(&p, ei.Left.Vec2, ei.Right.Vec2, ej.Left.Vec2, ej.Right.Vec2)
			if kind != geomx.PointIntersect {
				continue
			}
			if p.CmpVec2(ei.Left.Vec2) == 0 || p.CmpVec2(ei.Right.Vec2) == 0 ||
				p.CmpVec2(ej.Left.Vec2) == 0 || p.CmpVec2(ej.Right.Vec2) == 0 {
				continue
			}
			return ei, ej, p, true
		}
	}
	return nil, nil, geomx.Vec2If{}, false
}

func (s *Sweep) liveResultEdges() []*Edge {
	live := s.resultList[:0:0]
	for _, e := range s.resultList {
		if !isEdgeDeleted(e) {
			live = append(live, e)
		}
	}
	return live
}

// resolveHotPixel finds every live result edge tolerantly passing
// through point (at least a and b, which triggered this pixel) and
// splits each of them there. The resulting duplicate-endpoint edges
// (two collinear halves of what were distinct input edges, now sharing
// both endpoints) are combined by mergeResultDuplicates once every hot
// pixel in the arrangement has been resolved.
func (s *Sweep) resolveHotPixel(point geomx.Vec2, a, b *Edge) {
	members := []*Edge{a, b}
	for _, e := range s.liveResultEdges() {
		if e == a || e == b {
			continue
		}
		if e.Left.Vec2.Eq(point) || e.Right.Vec2.Eq(point) {
			continue
		}
		if segmentContainsPoint(e, point) {
			members = append(members, e)
		}
	}

	for _, e := range members {
		s.splitResultEdgeAt(e, point)
	}
}

func segmentContainsPoint(e *Edge, p geomx.Vec2) bool {
	if geomx.RightCross3Z(e.Left.Vec2, e.Right.Vec2, p) != 0 {
		return false
	}
	return e.Left.Vec2.Cmp(p) <= 0 && p.Cmp(e.Right.Vec2) <= 0
}

// splitResultEdgeAt replaces e in the result with two edges sharing its
// membership, meeting at point. No-op if point is already an endpoint.
func (s *Sweep) splitResultEdgeAt(e *Edge, point geomx.Vec2) {
	if point.Eq(e.Left.Vec2) || point.Eq(e.Right.Vec2) {
		return
	}
	left := newEdge(e.Left.Vec2, point, e.Membership)
	right := newEdge(point, e.Right.Vec2, e.Membership)
	deleteEdge(e)
	s.resultList = append(s.resultList, left, right)
}

// mergeResultDuplicates XORs the membership of result edges sharing
// identical endpoints and drops any whose combined membership cancels
// to zero, per the emission rule in §4.4.
func (s *Sweep) mergeResultDuplicates() {
	type key struct{ lx, ly, rx, ry geomx.Dim }
	merged := make(map[key]*Edge)
	order := make([]key, 0, len(s.resultList))
	for _, e := range s.liveResultEdges() {
		k := key{e.Left.Vec2.X, e.Left.Vec2.Y, e.Right.Vec2.X, e.Right.Vec2.Y}
		if existing, found := merged[k]; found {
			existing.Membership ^= e.Membership
			continue
		}
		merged[k] = e
		order = append(order, k)
	}
	out := make([]*Edge, 0, len(order))
	for _, k := range order {
		if e := merged[k]; e.Membership != 0 {
			out = append(out, e)
		}
	}
	s.resultList = out
}
