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

package geomx

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestRightCross3ZOrientation(t *testing.T) {
	cases := []struct {
		a, b, c  Vec2
		wantSign int
	}{
		{Vec2{0, 0}, Vec2{1, 0}, Vec2{0, 1}, 1},  // CCW
		{Vec2{0, 0}, Vec2{0, 1}, Vec2{1, 0}, -1}, // CW
		{Vec2{0, 0}, Vec2{1, 0}, Vec2{2, 0}, 0},  // collinear
	}
	for _, c := range cases {
		got := Sign64(RightCross3Z(c.a, c.b, c.c))
		if got != c.wantSign {
			t.Errorf("RightCross3Z(%v,%v,%v) sign = %d, want %d", c.a, c.b, c.c, got, c.wantSign)
		}
	}
}

func TestDimIfRoundTiesAwayFromI(t *testing.T) {
	cases := []struct {
		f    DimIf
		want Dim
	}{
		{DimIf{I: 3, N: 0, D: 1}, 3},
		{DimIf{I: 3, N: 1, D: 2}, 4}, // exactly half rounds up
		{DimIf{I: 3, N: 1, D: 4}, 3},
		{DimIf{I: 3, N: 3, D: 4}, 4},
		{DimIf{I: -2, N: 1, D: 2}, -1},
	}
	for _, c := range cases {
		if got := c.f.Round(); got != c.want {
			t.Errorf("%+v.Round() = %d, want %d", c.f, got, c.want)
		}
	}
}

func TestIntersectCrossing(t *testing.T) {
	var out Vec2If
	kind := Intersect(&out, Vec2{0, 0}, Vec2{10, 10}, Vec2{0, 10}, Vec2{10, 0})
	if kind != PointIntersect {
		t.Fatalf("Intersect() kind = %v, want PointIntersect", kind)
	}
	if out.Round() != (Vec2{5, 5}) {
		t.Fatalf("Intersect() point = %v, want (5,5)", out.Round())
	}
}

func TestIntersectParallelNoOverlap(t *testing.T) {
	var out Vec2If
	kind := Intersect(&out, Vec2{0, 0}, Vec2{10, 0}, Vec2{0, 1}, Vec2{10, 1})
	if kind != NoIntersect {
		t.Fatalf("Intersect() kind = %v, want NoIntersect", kind)
	}
}

func TestIntersectCollinearOverlap(t *testing.T) {
	var out Vec2If
	kind := Intersect(&out, Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 0}, Vec2{15, 0})
	if kind != Collinear {
		t.Fatalf("Intersect() kind = %v, want Collinear", kind)
	}
}

func TestIntersectDisjointSegments(t *testing.T) {
	var out Vec2If
	// Crossing lines, but the segments themselves don't reach the crossing.
	kind := Intersect(&out, Vec2{0, 0}, Vec2{1, 1}, Vec2{0, 10}, Vec2{1, 9})
	if kind != NoIntersect {
		t.Fatalf("Intersect() kind = %v, want NoIntersect", kind)
	}
}

// TestIntersectExactAgainstFloat checks the exact fractional intersection
// point against a float64 computation, for many random non-parallel
// segment pairs, as a cross-check that the exact arithmetic isn't simply
// wrong in a way ulps-level float comparison would miss.
func TestIntersectExactAgainstFloat(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		coord := rapid.Int32Range(-1000, 1000)
		p0 := Vec2{X: Dim(coord.Draw(rt, "p0x")), Y: Dim(coord.Draw(rt, "p0y"))}
		p1 := Vec2{X: Dim(coord.Draw(rt, "p1x")), Y: Dim(coord.Draw(rt, "p1y"))}
		q0 := Vec2{X: Dim(coord.Draw(rt, "q0x")), Y: Dim(coord.Draw(rt, "q0y"))}
		q1 := Vec2{X: Dim(coord.Draw(rt, "q1x")), Y: Dim(coord.Draw(rt, "q1y"))}

		var out Vec2If
		kind := Intersect(&out, p0, p1, q0, q1)
		if kind != PointIntersect {
			return
		}

		fx := float64(out.X.I) + float64(out.X.N)/float64(out.X.D)
		fy := float64(out.Y.I) + float64(out.Y.N)/float64(out.Y.D)

		wantX, wantY, ok := floatIntersect(p0, p1, q0, q1)
		if !ok {
			rt.Fatalf("exact said PointIntersect but float says no intersection")
		}
		if math.Abs(fx-wantX) > 1e-6 || math.Abs(fy-wantY) > 1e-6 {
			rt.Fatalf("exact point (%v,%v) disagrees with float point (%v,%v)", fx, fy, wantX, wantY)
		}
	})
}

func floatIntersect(p0, p1, q0, q1 Vec2) (x, y float64, ok bool) {
	d1x, d1y := float64(p1.X-p0.X), float64(p1.Y-p0.Y)
	d2x, d2y := float64(q1.X-q0.X), float64(q1.Y-q0.Y)
	denom := d1x*d2y - d1y*d2x
	if denom == 0 {
		return 0, 0, false
	}
	wx, wy := float64(q0.X-p0.X), float64(q0.Y-p0.Y)
	t := (wx*d2y - wy*d2x) / denom
	s := (wx*d1y - wy*d1x) / denom
	if t < 0 || t > 1 || s < 0 || s > 1 {
		return 0, 0, false
	}
	return float64(p0.X) + t*d1x, float64(p0.Y) + t*d1y, true
}

func TestVec2CmpOrdersLexicographically(t *testing.T) {
	if Vec2{0, 0}.Cmp(Vec2{1, 0}) >= 0 {
		t.Fatalf("(0,0) should compare before (1,0)")
	}
	if Vec2{0, 0}.Cmp(Vec2{0, 1}) >= 0 {
		t.Fatalf("(0,0) should compare before (0,1)")
	}
	if Vec2{1, 0}.Cmp(Vec2{0, 5}) <= 0 {
		t.Fatalf("(1,0) should compare after (0,5): X dominates")
	}
}
