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
	"math"

	"hensel.name/cq/cqerr"
	"hensel.name/cq/geomx"
)

// Triangulate runs the same face trace as Polygonize but additionally
// ear-clips each ring into triangles, per §4.7.
//
// Ear clipping only works on a single simple ring, so a hole ring
// (negative area, per §4.6) is first merged into its containing shell
// via mergeHoleIntoShell — the keyhole technique: a bridge edge,
// traversed once each way, splices the hole's vertex loop into the
// shell's at a pair of mutually visible vertices, the Go-native stand-
// in for op-poly.c's list_edge_merge producing one simple ring a
// straightforward ear-clipper can consume.
//
// Outline-flag computation is redesigned per the spec's explicit
// direction (§9(c)): rather than chasing ring-buddy list pointers while
// clipping (the reference implementation's documented latent bug), the
// set of (point, point) pairs that are consecutive in an original
// traced ring — i.e. genuine arrangement edges, not diagonals
// introduced by clipping or by the hole bridge — is precomputed once
// per ring before merging, and every emitted triangle edge is looked up
// against it directly.
func (s *Sweep) Triangulate() (*Poly, error) {
	if s.phase == phaseInput {
		return nil, cqerr.New(cqerr.InvalidArrangement, "Triangulate", "Intersect must run before Triangulate")
	}
	rings, err := traceFaces(s.resultList)
	if err != nil {
		return nil, err
	}

	pts := newPointRegistry()
	outline := make(map[outlineKey]bool)
	var shells, holes []faceRing
	for _, r := range rings {
		if !r.filled {
			continue
		}
		idx := make([]int, len(r.verts))
		for i, v := range r.verts {
			idx[i] = pts.get(v)
		}
		for i := range idx {
			outline[outlineKeyOf(idx[i], idx[(i+1)%len(idx)])] = true
		}
		if r.area > 0 {
			shells = append(shells, r)
		} else {
			holes = append(holes, r)
		}
	}

	rungs := make([][]geomx.Vec2, len(shells))
	for i, r := range shells {
		rungs[i] = r.verts
	}
	for _, h := range holes {
		owner := -1
		for i, r := range shells {
			if pointInRing(h.verts[0], r.verts) {
				owner = i
				break
			}
		}
		if owner < 0 {
			return nil, cqerr.New(cqerr.UnclosedPolygon, "Triangulate", "hole ring at %v has no containing shell", h.verts[0])
		}
		merged, err := mergeHoleIntoShell(rungs[owner], h.verts)
		if err != nil {
			return nil, err
		}
		rungs[owner] = merged
	}

	poly := &Poly{}
	for _, verts := range rungs {
		idx := make([]int, len(verts))
		for i, v := range verts {
			idx[i] = pts.get(v)
		}
		tris, err := triangulateRing(verts, idx, outline)
		if err != nil {
			return nil, err
		}
		poly.Tri = append(poly.Tri, tris...)
	}
	poly.Point = pts.point
	return poly, nil
}

// pointInRing is an even-odd ray-casting containment test: a horizontal
// ray from p in the +X direction crosses ring an odd number of times
// iff p lies inside it. Used only to pair a hole with its shell, not
// for exact arrangement geometry, so float64 crossing arithmetic is
// adequate.
func pointInRing(p geomx.Vec2, ring []geomx.Vec2) bool {
	inside := false
	n := len(ring)
	py := float64(p.Y)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		ay, by := float64(a.Y), float64(b.Y)
		if (ay > py) == (by > py) {
			continue
		}
		x := float64(a.X) + (py-ay)/(by-ay)*(float64(b.X)-float64(a.X))
		if x > float64(p.X) {
			inside = !inside
		}
	}
	return inside
}

// maxXIndex returns the index of ring's rightmost vertex (ties broken
// by larger Y), a safe keyhole bridge start: the nearest shell crossing
// to its right cannot be blocked by any other part of the same hole.
func maxXIndex(ring []geomx.Vec2) int {
	best := 0
	for i, v := range ring {
		if v.X > ring[best].X || (v.X == ring[best].X && v.Y > ring[best].Y) {
			best = i
		}
	}
	return best
}

// nearestShellBridge finds the shell edge immediately to the right of
// hv along its horizontal ray and returns the index of that edge's
// rightmost endpoint, the bridge's far end. Returns -1 if hv has no
// shell edge to its right (shell does not actually contain hv).
func nearestShellBridge(hv geomx.Vec2, shell []geomx.Vec2) int {
	bestX := math.Inf(1)
	bestIdx := -1
	n := len(shell)
	py := float64(hv.Y)
	for i := 0; i < n; i++ {
		a, b := shell[i], shell[(i+1)%n]
		ay, by := float64(a.Y), float64(b.Y)
		if (ay > py) == (by > py) {
			continue
		}
		x := float64(a.X) + (py-ay)/(by-ay)*(float64(b.X)-float64(a.X))
		if x < float64(hv.X) || x >= bestX {
			continue
		}
		bestX = x
		if a.X > b.X {
			bestIdx = i
		} else {
			bestIdx = (i + 1) % n
		}
	}
	return bestIdx
}

// mergeHoleIntoShell splices hole into shell at a pair of mutually
// visible bridge vertices, producing one simple ring with a zero-width
// channel in place of the bridge — the keyhole technique §4.6 calls
// out by name via op-poly.c's list_edge_merge.
func mergeHoleIntoShell(shell, hole []geomx.Vec2) ([]geomx.Vec2, error) {
	hv := maxXIndex(hole)
	sv := nearestShellBridge(hole[hv], shell)
	if sv < 0 {
		return nil, cqerr.New(cqerr.UnclosedPolygon, "Triangulate", "no visible bridge from hole at %v to its shell", hole[hv])
	}

	merged := make([]geomx.Vec2, 0, len(shell)+len(hole)+2)
	merged = append(merged, shell[:sv+1]...)
	for k := 0; k < len(hole); k++ {
		merged = append(merged, hole[(hv+k)%len(hole)])
	}
	merged = append(merged, hole[hv], shell[sv])
	merged = append(merged, shell[sv+1:]...)
	return merged, nil
}

type outlineKey [2]int

func outlineKeyOf(a, b int) outlineKey {
	if a > b {
		a, b = b, a
	}
	return outlineKey{a, b}
}

// triangulateRing ear-clips one CCW simple ring (verts, with point
// registry indices idx, possibly keyhole-merged with holes) into
// triangles with positive area. outline holds the (point, point) pairs
// that are genuine arrangement edges, precomputed from the original
// unmerged rings so the bridge edges mergeHoleIntoShell introduces
// never get mistaken for one.
func triangulateRing(verts []geomx.Vec2, idx []int, outline map[outlineKey]bool) ([]Tri, error) {
	n := len(verts)
	if n < 3 {
		return nil, nil
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	var tris []Tri
	for len(remaining) > 3 {
		clipped := false
		for i := range remaining {
			m := len(remaining)
			prev := remaining[(i-1+m)%m]
			cur := remaining[i]
			next := remaining[(i+1)%m]
			if !isEar(verts, remaining, prev, cur, next) {
				continue
			}
			tris = append(tris, makeTri(idx, outline, prev, cur, next))
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, cqerr.New(cqerr.UnclosedPolygon, "Triangulate", "ear clipping stalled on a non-simple ring")
		}
	}
	tris = append(tris, makeTri(idx, outline, remaining[0], remaining[1], remaining[2]))
	return tris, nil
}

func makeTri(idx []int, outline map[outlineKey]bool, p, q, w int) Tri {
	t := Tri{P: [3]int{idx[p], idx[q], idx[w]}}
	if outline[outlineKeyOf(t.P[0], t.P[1])] {
		t.Flags |= OutlineEdge01
	}
	if outline[outlineKeyOf(t.P[1], t.P[2])] {
		t.Flags |= OutlineEdge12
	}
	if outline[outlineKeyOf(t.P[2], t.P[0])] {
		t.Flags |= OutlineEdge20
	}
	return t
}

func isEar(verts []geomx.Vec2, remaining []int, prev, cur, next int) bool {
	a, b, c := verts[prev], verts[cur], verts[next]
	if geomx.RightCross3Z(a, b, c) <= 0 {
		return false
	}
	for _, r := range remaining {
		if r == prev || r == cur || r == next {
			continue
		}
		if pointInTriangle(verts[r], a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c geomx.Vec2) bool {
	d1 := geomx.RightCross3Z(a, b, p)
	d2 := geomx.RightCross3Z(b, c, p)
	d3 := geomx.RightCross3Z(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
