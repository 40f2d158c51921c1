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

// Package adapt is the float/int boundary: it quantizes floating-point
// seehuhn.de/go/geom paths down to the exact integer grid cq's sweep
// engine runs on, flattens curves the way the rasterizer this module
// was built from does, and lifts cq's output (paths, triangles) back
// up to float path.Data for rendering or further processing.
package adapt

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"hensel.name/cq"
	"hensel.name/cq/geomx"
)

// Quantizer maps between user-space float64 coordinates and the
// bounded-int32 grid the sweep operates on. CTM is applied before
// scaling, the same "transform then rasterize" order the rasterizer
// this module descends from uses. Scale is user-space units per grid
// unit (post-CTM); a bigger Scale keeps more sub-unit precision at the
// cost of a smaller representable range. Clip, if non-nil, drops whole
// subpaths whose bounding box misses it entirely, the same coarse
// culling the rasterizer's Clip rectangle does before it ever builds an
// edge list.
type Quantizer struct {
	CTM      matrix.Matrix
	Scale    float64
	Flatness float64 // curve flattening tolerance, in user-space units
	Clip     *rect.Rect
}

// DefaultQuantizer is tuned for typical page-coordinate input (points,
// origin near zero, path coordinates within a few thousand units).
var DefaultQuantizer = Quantizer{CTM: matrix.Identity, Scale: 256, Flatness: 0.1}

func (q Quantizer) transform(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: q.CTM[0]*v.X + q.CTM[2]*v.Y + q.CTM[4],
		Y: q.CTM[1]*v.X + q.CTM[3]*v.Y + q.CTM[5],
	}
}

// ToVec2 transforms v by CTM and rounds to the nearest grid point,
// clamping to the representable range rather than overflowing.
func (q Quantizer) ToVec2(v vec.Vec2) geomx.Vec2 {
	v = q.transform(v)
	return geomx.Vec2{X: q.toDim(v.X), Y: q.toDim(v.Y)}
}

func (q Quantizer) toDim(f float64) geomx.Dim {
	scaled := math.Round(f * q.Scale)
	switch {
	case scaled <= float64(geomx.DimMin):
		return geomx.DimMin
	case scaled >= float64(geomx.DimMax):
		return geomx.DimMax
	default:
		return geomx.Dim(scaled)
	}
}

// FromVec2 maps a grid point back to user space. It inverts Scale but
// not CTM: lifting cq's output back through an arbitrary forward
// transform would need CTM's inverse, which callers that only ever
// quantize with an identity or axis-scaling CTM (the common preview
// case) don't need to pay for.
func (q Quantizer) FromVec2(v geomx.Vec2) vec.Vec2 {
	return vec.Vec2{X: float64(v.X) / q.Scale, Y: float64(v.Y) / q.Scale}
}

func ringBBox(ring []geomx.Vec2) (lo, hi geomx.Vec2) {
	lo, hi = ring[0], ring[0]
	for _, p := range ring[1:] {
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
	}
	return lo, hi
}

func (q Quantizer) clipRejects(ring []geomx.Vec2) bool {
	if q.Clip == nil || len(ring) == 0 {
		return false
	}
	lo, hi := ringBBox(ring)
	return float64(hi.X) < q.Clip.LLx || float64(lo.X) > q.Clip.URx ||
		float64(hi.Y) < q.Clip.LLy || float64(lo.Y) > q.Clip.URy
}

// AddPath flattens p (quadratics and cubics subdivided per q.Flatness,
// same deviation-vector criterion the rasterizer uses to pick segment
// counts) and feeds every resulting subpath into s as a closed polygon
// tagged with membership, unless q.Clip rules it out entirely. An
// explicit path.CmdClose is not required: AddPoly already closes the
// ring back to its start.
func AddPath(s *cq.Sweep, p *path.Data, q Quantizer, membership uint64) {
	var current, subpathStart vec.Vec2
	var ring []geomx.Vec2
	coordIdx := 0

	flush := func() {
		if len(ring) >= 2 && !q.clipRejects(ring) {
			s.AddPoly(ring, membership)
		}
		ring = ring[:0]
	}

	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			flush()
			current = p.Coords[coordIdx]
			subpathStart = current
			ring = append(ring, q.ToVec2(current))
			coordIdx++

		case path.CmdLineTo:
			current = p.Coords[coordIdx]
			ring = append(ring, q.ToVec2(current))
			coordIdx++

		case path.CmdQuadTo:
			p1, p2 := p.Coords[coordIdx], p.Coords[coordIdx+1]
			flattenQuadratic(current, p1, p2, q.Flatness, func(_, to vec.Vec2) {
				ring = append(ring, q.ToVec2(to))
			})
			current = p2
			coordIdx += 2

		case path.CmdCubeTo:
			p1, p2, p3 := p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2]
			flattenCubic(current, p1, p2, p3, q.Flatness, func(_, to vec.Vec2) {
				ring = append(ring, q.ToVec2(to))
			})
			current = p3
			coordIdx += 3

		case path.CmdClose:
			current = subpathStart
		}
	}
	flush()
}

// PathsToPoly is the common case: quantize every path in paths, OR-ing
// membership bits per input so a boolean truth table keyed on that
// mask can later separate them in Reduce.
func PathsToPoly(s *cq.Sweep, paths []*path.Data, q Quantizer) {
	for i, p := range paths {
		AddPath(s, p, q, uint64(1)<<uint(i))
	}
}

// PolyPaths lifts a cq.Poly's closed paths back to a float path.Data,
// one subpath per Path, each closed with CmdClose.
func PolyPaths(poly *cq.Poly, q Quantizer) *path.Data {
	out := &path.Data{}
	for _, pth := range poly.Path {
		if len(pth.Point) == 0 {
			continue
		}
		out.Cmds = append(out.Cmds, path.CmdMoveTo)
		out.Coords = append(out.Coords, q.FromVec2(poly.Point[pth.Point[0]]))
		for _, idx := range pth.Point[1:] {
			out.Cmds = append(out.Cmds, path.CmdLineTo)
			out.Coords = append(out.Coords, q.FromVec2(poly.Point[idx]))
		}
		out.Cmds = append(out.Cmds, path.CmdClose)
	}
	return out
}

// PolyTriangles lifts a cq.Poly's triangles to a float path.Data, one
// closed triangle subpath each — useful for previewing a triangulation
// result without a dedicated mesh viewer.
func PolyTriangles(poly *cq.Poly, q Quantizer) *path.Data {
	out := &path.Data{}
	for _, t := range poly.Tri {
		out.Cmds = append(out.Cmds, path.CmdMoveTo)
		out.Coords = append(out.Coords, q.FromVec2(poly.Point[t.P[0]]))
		for _, idx := range t.P[1:] {
			out.Cmds = append(out.Cmds, path.CmdLineTo)
			out.Coords = append(out.Coords, q.FromVec2(poly.Point[idx]))
		}
		out.Cmds = append(out.Cmds, path.CmdClose)
	}
	return out
}

// flattenQuadratic and flattenCubic subdivide Bézier segments by the
// same deviation-vector / Wang's-formula criteria as the rasterizer's
// flattenQuadratic/flattenCubic, minus the CTM-aware device-space
// tolerance step: adapt flattens in user space directly since the
// result feeds an exact grid, not a device raster.

func flattenQuadratic(p0, p1, p2 vec.Vec2, flatness float64, emit func(from, to vec.Vec2)) {
	e := p0.Sub(p1.Mul(2)).Add(p2).Mul(0.25)
	n := 1
	if errLen := e.Length(); errLen > flatness {
		n = int(math.Ceil(math.Sqrt(errLen / flatness)))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		pt := p0.Mul(omt * omt).Add(p1.Mul(2 * omt * t)).Add(p2.Mul(t * t))
		emit(prev, pt)
		prev = pt
	}
}

func flattenCubic(p0, p1, p2, p3 vec.Vec2, flatness float64, emit func(from, to vec.Vec2)) {
	d1 := p0.Sub(p1.Mul(2)).Add(p2)
	d2 := p1.Sub(p2.Mul(2)).Add(p3)
	m := math.Max(d1.Length(), d2.Length())

	n := 1
	if m > 0 {
		if nf := math.Sqrt(3 * m / (4 * flatness)); nf > 1 {
			n = int(math.Ceil(nf))
		}
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t
		pt := p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
		emit(prev, pt)
		prev = pt
	}
}
