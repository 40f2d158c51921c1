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

// Package geomx provides the exact-arithmetic integer geometry primitives
// the sweep engine is built on: a bounded int32 coordinate, its fractional
// extension used for intersection points, and the cross-product/distance
// predicates that decide topology. No floating point participates here;
// floats only appear at the boundary, in package adapt.
package geomx

import "math"

// Dim is a bounded signed 32-bit coordinate. The bounds leave one unit of
// headroom below the true int32 extrema so a single subtraction between
// two in-range values can never itself overflow int32.
type Dim int32

const (
	DimMin Dim = math.MinInt32 + 1
	DimMax Dim = math.MaxInt32 - 1
)

// Vec2 is an integer point or vector.
type Vec2 struct {
	X, Y Dim
}

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Cmp orders a before b lexicographically by (X, Y).
func (a Vec2) Cmp(b Vec2) int {
	if a.X != b.X {
		if a.X < b.X {
			return -1
		}
		return 1
	}
	if a.Y != b.Y {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	return 0
}

func (a Vec2) Eq(b Vec2) bool { return a.X == b.X && a.Y == b.Y }

// SqrDist returns the squared distance between a and b, widened to
// int64 so it cannot overflow for any pair of in-range Dim values.
func SqrDist(a, b Vec2) int64 {
	dx := int64(a.X) - int64(b.X)
	dy := int64(a.Y) - int64(b.Y)
	return dx*dx + dy*dy
}

// RightCross3Z returns the Z component of (b-a) x (c-a), widened to
// int64. Its sign is the orientation of the triple (a, b, c): positive
// means counter-clockwise, negative clockwise, zero collinear.
func RightCross3Z(a, b, c Vec2) int64 {
	abx := int64(b.X) - int64(a.X)
	aby := int64(b.Y) - int64(a.Y)
	acx := int64(c.X) - int64(a.X)
	acy := int64(c.Y) - int64(a.Y)
	return abx*acy - aby*acx
}

func Sign64(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// DimIf is a fractional coordinate i + n/d, d >= 1, 0 <= n < d,
// representing an exact intersection coordinate.
type DimIf struct {
	I    int32
	N, D int64
}

func FromDim(d Dim) DimIf { return DimIf{I: int32(d)} }

// Round returns the nearest integer Dim, rounding n/d >= 1/2 up (ties
// away from i), matching the reference snap-rounding convention.
func (f DimIf) Round() Dim {
	if f.D == 0 {
		return Dim(f.I)
	}
	if 2*f.N >= f.D {
		return Dim(f.I + 1)
	}
	return Dim(f.I)
}

// Cmp compares two fractional coordinates exactly via cross-multiplication.
func (f DimIf) Cmp(g DimIf) int {
	if f.I != g.I {
		if f.I < g.I {
			return -1
		}
		return 1
	}
	// compare n/d vs gn/gd
	lhs := f.N * g.D
	rhs := g.N * f.D
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

// CmpDim compares a fractional coordinate against a plain integer one.
func (f DimIf) CmpDim(d Dim) int {
	return f.Cmp(FromDim(d))
}

// Vec2If is the fractional extension of Vec2, used only for pending
// intersection coordinates before they are snap-rounded.
type Vec2If struct {
	X, Y DimIf
}

func FromVec2(v Vec2) Vec2If {
	return Vec2If{X: FromDim(v.X), Y: FromDim(v.Y)}
}

func (a Vec2If) Cmp(b Vec2If) int {
	if i := a.X.Cmp(b.X); i != 0 {
		return i
	}
	return a.Y.Cmp(b.Y)
}

func (a Vec2If) CmpVec2(b Vec2) int {
	if i := a.X.CmpDim(b.X); i != 0 {
		return i
	}
	return a.Y.CmpDim(b.Y)
}

func (a Vec2If) Round() Vec2 {
	return Vec2{X: a.X.Round(), Y: a.Y.Round()}
}

// IntersectKind classifies the result of Intersect.
type IntersectKind int

const (
	NoIntersect IntersectKind = iota
	PointIntersect
	Collinear
)

// Intersect computes the exact intersection of open segments p0-p1 and
// q0-q1. On PointIntersect, it writes the fractional intersection point
// to *out. Endpoint-touching and collinear-overlap cases are reported as
// Collinear so the caller (the sweep's overlap/split logic) can apply
// its own case analysis; this mirrors the reference's bitmask result,
// simplified to the cases this port actually branches on.
func Intersect(out *Vec2If, p0, p1, q0, q1 Vec2) IntersectKind {
	d1x, d1y := int64(p1.X)-int64(p0.X), int64(p1.Y)-int64(p0.Y)
	d2x, d2y := int64(q1.X)-int64(q0.X), int64(q1.Y)-int64(q0.Y)
	denom := d1x*d2y - d1y*d2x

	wx, wy := int64(q0.X)-int64(p0.X), int64(q0.Y)-int64(p0.Y)

	if denom == 0 {
		// parallel; collinear iff w x d1 == 0
		if wx*d1y-wy*d1x == 0 {
			return Collinear
		}
		return NoIntersect
	}

	// t = (w x d2) / denom ; s = (w x d1) / denom
	tNum := wx*d2y - wy*d2x
	sNum := wx*d1y - wy*d1x

	if denom < 0 {
		tNum, sNum, denom = -tNum, -sNum, -denom
	}
	if tNum < 0 || tNum > denom || sNum < 0 || sNum > denom {
		return NoIntersect
	}

	// point = p0 + t*d1, t = tNum/denom
	ix := int64(p0.X)*denom + tNum*d1x
	iy := int64(p0.Y)*denom + tNum*d1y
	whole, rem := floorDiv(ix, denom), 0
	_ = rem
	fracNumX := ix - whole*denom
	wholeY, _ := floorDiv(iy, denom), 0
	fracNumY := iy - wholeY*denom

	out.X = DimIf{I: int32(whole), N: fracNumX, D: denom}
	out.Y = DimIf{I: int32(wholeY), N: fracNumY, D: denom}
	return PointIntersect
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
