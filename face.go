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
	"sort"

	"hensel.name/cq/cqerr"
	"hensel.name/cq/geomx"
)

// halfEdge is one directed traversal of a reduced result edge. Tracing
// every unused half-edge around a face recovers closed rings from the
// planar subdivision — the Go-native stand-in for op-poly.c's
// intrusive face-ring linked list; see DESIGN.md for why an external
// registry was chosen over adding ring pointers to Edge.
type halfEdge struct {
	from, to geomx.Vec2
	edge     *Edge // the result edge this half-edge traverses
	fwd      bool  // true if from==edge.Left, false if from==edge.Right
	used     bool
}

// filled reports whether the face immediately to this half-edge's left
// (the side traceFaces's walk encloses) is part of the kept region, per
// the Below/FillAbove winding classification Reduce already computed
// for edge.
func (h *halfEdge) filled() bool {
	if h.fwd {
		return h.edge.FillAbove
	}
	return !h.edge.FillAbove
}

// faceRing is one traced closed walk: the vertex sequence, its signed
// area (shoelace, doubled), and whether the enclosed face is part of
// the kept (filled) region. A positive-area filled ring is an outer
// shell; a negative-area filled ring is a hole nested in some shell's
// interior (§4.6's "inner hole connecting to outer").
type faceRing struct {
	verts  []geomx.Vec2
	area   int64
	filled bool
}

// traceFaces recovers every face of the planar subdivision formed by
// the kept result edges, as closed vertex rings. Each undirected edge
// contributes two half-edges (one per direction); every half-edge is
// consumed by exactly one ring.
func traceFaces(edges []*Edge) ([]faceRing, error) {
	out := make(map[geomx.Vec2][]*halfEdge)
	var all []*halfEdge
	for _, e := range edges {
		if isEdgeDeleted(e) {
			continue
		}
		h1 := &halfEdge{from: e.Left.Vec2, to: e.Right.Vec2, edge: e, fwd: true}
		h2 := &halfEdge{from: e.Right.Vec2, to: e.Left.Vec2, edge: e, fwd: false}
		out[h1.from] = append(out[h1.from], h1)
		out[h2.from] = append(out[h2.from], h2)
		all = append(all, h1, h2)
	}
	for _, bucket := range out {
		sort.Slice(bucket, func(i, j int) bool {
			return dirCmp(bucket[i].to.Sub(bucket[i].from), bucket[j].to.Sub(bucket[j].from)) < 0
		})
	}

	var rings []faceRing
	for _, start := range all {
		if start.used {
			continue
		}
		var verts []geomx.Vec2
		h := start
		for {
			h.used = true
			verts = append(verts, h.from)
			next, err := nextClockwise(out, h)
			if err != nil {
				return nil, err
			}
			h = next
			if h == start {
				break
			}
		}
		rings = append(rings, faceRing{verts: verts, area: signedArea2(verts), filled: start.filled()})
	}
	return rings, nil
}

// nextClockwise finds, among the half-edges leaving h.to, the one
// immediately clockwise from the reverse of h — the standard
// planar-subdivision face-walk step.
func nextClockwise(out map[geomx.Vec2][]*halfEdge, h *halfEdge) (*halfEdge, error) {
	bucket := out[h.to]
	reverseDir := h.from.Sub(h.to)
	pos := sort.Search(len(bucket), func(i int) bool {
		return dirCmp(bucket[i].to.Sub(bucket[i].from), reverseDir) >= 0
	})
	if pos == len(bucket) || dirCmp(bucket[pos].to.Sub(bucket[pos].from), reverseDir) != 0 {
		return nil, cqerr.New(cqerr.UnclosedPolygon, "Polygonize", "no matching reverse half-edge at %v", h.to)
	}
	next := (pos + len(bucket) - 1) % len(bucket)
	return bucket[next], nil
}

// dirCmp orders direction vectors by counter-clockwise angle, the same
// octant-then-cross-product scheme angleCmp uses for agenda ordering.
func dirCmp(a, b geomx.Vec2) int {
	ha, hb := halfPlane(a), halfPlane(b)
	if ha != hb {
		if ha < hb {
			return -1
		}
		return 1
	}
	return geomx.Sign64(geomx.RightCross3Z(geomx.Vec2{}, a, b))
}

func signedArea2(verts []geomx.Vec2) int64 {
	var sum int64
	n := len(verts)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		sum += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}
	return sum
}
