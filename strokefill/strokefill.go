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

// Package strokefill lowers a stroked path into a fillable outline
// polygon, the way the rasterizer this module descends from builds a
// stroke outline before scanning it — except the outline here is
// handed to the sweep engine instead of a scanline fill, so self-
// overlap at inner corners (which the rasterizer had to trim away with
// an explicit line-line intersection to avoid coverage artifacts) is
// harmless: Reduce's membership XOR resolves it for free. See
// DESIGN.md.
package strokefill

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

const (
	collinearityThreshold = 1e-9
	cuspCosineThreshold    = -1 + 1e-6
	zeroLengthThreshold    = 1e-9
)

// Style mirrors the Rasterizer stroke parameters.
type Style struct {
	Width      float64
	Cap        graphics.LineCapStyle
	Join       graphics.LineJoinStyle
	MiterLimit float64
	Dash       []float64
	DashPhase  float64
	Flatness   float64 // curve-flattening and arc-resolution tolerance
}

type segment struct {
	A, B vec.Vec2
	T, N vec.Vec2 // unit tangent, unit normal (90° CCW from T)
}

// Outline builds the fillable stroke-outline path for p under style: one
// closed subpath per stroked run (dash segment, or whole subpath when
// undashed), in the same left-offset/right-offset-reversed order the
// reference rasterizer builds, ready for adapt.AddPath.
func Outline(p *path.Data, style Style) *path.Data {
	b := &builder{style: style, out: &path.Data{}}
	for _, segs := range flattenPath(p) {
		if len(style.Dash) > 0 {
			for _, run := range dashSegments(segs.segs, style.Dash, style.DashPhase) {
				b.strokeSubpath(run, false)
			}
			continue
		}
		b.strokeSubpath(segs.segs, segs.closed)
	}
	return b.out
}

type subpath struct {
	segs   []segment
	closed bool
}

// flattenPath walks p, flattening curves into line segments, grouped by
// subpath. Zero-length segments are dropped.
func flattenPath(p *path.Data) []subpath {
	var out []subpath
	var cur []segment
	var current, start vec.Vec2
	coordIdx := 0

	add := func(a, b vec.Vec2) {
		d := b.Sub(a)
		length := d.Length()
		if length < zeroLengthThreshold {
			return
		}
		t := d.Mul(1 / length)
		n := vec.Vec2{X: -t.Y, Y: t.X}
		cur = append(cur, segment{A: a, B: b, T: t, N: n})
	}
	flush := func(closed bool) {
		if len(cur) > 0 {
			out = append(out, subpath{segs: cur, closed: closed})
		}
		cur = nil
	}

	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			flush(false)
			current = p.Coords[coordIdx]
			start = current
			coordIdx++
		case path.CmdLineTo:
			add(current, p.Coords[coordIdx])
			current = p.Coords[coordIdx]
			coordIdx++
		case path.CmdQuadTo:
			p1, p2 := p.Coords[coordIdx], p.Coords[coordIdx+1]
			flattenQuadratic(current, p1, p2, func(from, to vec.Vec2) { add(from, to) })
			current = p2
			coordIdx += 2
		case path.CmdCubeTo:
			p1, p2, p3 := p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2]
			flattenCubic(current, p1, p2, p3, func(from, to vec.Vec2) { add(from, to) })
			current = p3
			coordIdx += 3
		case path.CmdClose:
			if current != start {
				add(current, start)
			}
			current = start
			flush(true)
		}
	}
	flush(false)
	return out
}

func flattenQuadratic(p0, p1, p2 vec.Vec2, emit func(from, to vec.Vec2)) {
	const flatness = 0.25
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

func flattenCubic(p0, p1, p2, p3 vec.Vec2, emit func(from, to vec.Vec2)) {
	const flatness = 0.25
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

// dashSegments splits segs into the on-runs of the dash pattern,
// dropping off-runs, and dropping closedness (a dashed subpath is
// never closed, same as the rasterizer's rule).
func dashSegments(segs []segment, dash []float64, phase float64) [][]segment {
	pattern := dash
	if len(pattern)%2 != 0 {
		pattern = append(append([]float64{}, dash...), dash...)
	}
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	if total <= 0 {
		return [][]segment{segs}
	}

	pos := math.Mod(phase, total)
	if pos < 0 {
		pos += total
	}
	idx := 0
	for pos >= pattern[idx] {
		pos -= pattern[idx]
		idx = (idx + 1) % len(pattern)
	}
	on := idx%2 == 0
	remaining := pattern[idx] - pos

	var runs [][]segment
	var cur []segment
	closeRun := func() {
		if on && len(cur) > 0 {
			runs = append(runs, cur)
		}
		cur = nil
	}

	for _, seg := range segs {
		segLen := seg.B.Sub(seg.A).Length()
		start := seg.A
		for segLen > 0 {
			step := math.Min(segLen, remaining)
			end := start.Add(seg.T.Mul(step))
			if on {
				cur = append(cur, segment{A: start, B: end, T: seg.T, N: seg.N})
			}
			start = end
			segLen -= step
			remaining -= step
			if remaining <= zeroLengthThreshold {
				closeRun()
				idx = (idx + 1) % len(pattern)
				on = idx%2 == 0
				remaining = pattern[idx]
			}
		}
	}
	closeRun()
	return runs
}

type builder struct {
	style Style
	out   *path.Data
	poly  []vec.Vec2
}

func (b *builder) emit(v vec.Vec2) { b.poly = append(b.poly, v) }

func (b *builder) flush() {
	if len(b.poly) < 3 {
		b.poly = b.poly[:0]
		return
	}
	b.out.Cmds = append(b.out.Cmds, path.CmdMoveTo)
	b.out.Coords = append(b.out.Coords, b.poly[0])
	for _, v := range b.poly[1:] {
		b.out.Cmds = append(b.out.Cmds, path.CmdLineTo)
		b.out.Coords = append(b.out.Coords, v)
	}
	b.out.Cmds = append(b.out.Cmds, path.CmdClose)
	b.poly = b.poly[:0]
}

// strokeSubpath builds one closed outline polygon for segs: the +N
// offset forward, then the -N offset backward, with join geometry on
// each pass's outer corner and caps at the open ends.
func (b *builder) strokeSubpath(segs []segment, closed bool) {
	if len(segs) == 0 {
		return
	}
	d := b.style.Width / 2

	if !closed {
		first := &segs[0]
		b.addCap(first.A, first.T.Mul(-1), d)
	}

	for i := range segs {
		seg := &segs[i]
		b.emit(seg.A.Add(seg.N.Mul(d)))
		b.emit(seg.B.Add(seg.N.Mul(d)))
		var next *segment
		if i+1 < len(segs) {
			next = &segs[i+1]
		} else if closed {
			next = &segs[0]
		}
		if next != nil {
			b.addJoin(seg.B, seg.T, next.T, d, true)
		}
	}

	if !closed {
		last := &segs[len(segs)-1]
		b.addCap(last.B, last.T, d)
	}

	for i := len(segs) - 1; i >= 0; i-- {
		seg := &segs[i]
		b.emit(seg.B.Sub(seg.N.Mul(d)))
		b.emit(seg.A.Sub(seg.N.Mul(d)))
		var prev *segment
		if i > 0 {
			prev = &segs[i-1]
		} else if closed {
			prev = &segs[len(segs)-1]
		}
		if prev != nil {
			b.addJoin(seg.A, prev.T, seg.T, d, false)
		}
	}

	b.flush()
}

func (b *builder) addCap(p, t vec.Vec2, d float64) {
	n := vec.Vec2{X: -t.Y, Y: t.X}
	switch b.style.Cap {
	case graphics.LineCapSquare:
		ext := p.Add(t.Mul(d))
		b.emit(ext.Add(n.Mul(d)))
		b.emit(ext.Sub(n.Mul(d)))
	case graphics.LineCapRound:
		b.addArc(p, d, n, -math.Pi)
	}
}

// addJoin adds the outer-corner vertex/vertices at P where the tangent
// turns from t1 to t2, on the side named by outer (true = +N pass,
// false = -N pass). The straight offset points bracketing the corner
// are already emitted by the caller; this only fills the gap between
// them.
func (b *builder) addJoin(p, t1, t2 vec.Vec2, d float64, outer bool) {
	cosTheta := t1.Dot(t2)
	sinTheta := t1.X*t2.Y - t1.Y*t2.X
	if sinTheta > -collinearityThreshold && sinTheta < collinearityThreshold {
		return
	}
	if cosTheta < cuspCosineThreshold {
		b.addCap(p, t1, d)
		b.addCap(p, t2.Mul(-1), d)
		return
	}

	turningOuter := (sinTheta > 0) != outer
	if !turningOuter {
		return
	}

	n1 := vec.Vec2{X: -t1.Y, Y: t1.X}
	n2 := vec.Vec2{X: -t2.Y, Y: t2.X}
	if !outer {
		n1, n2 = n1.Mul(-1), n2.Mul(-1)
	}

	switch b.style.Join {
	case graphics.LineJoinMiter:
		sinHalf := math.Sqrt(math.Max(0, (1+cosTheta)/2))
		if sinHalf > zeroLengthThreshold && 1/sinHalf <= b.style.MiterLimit+1e-10 {
			bisector := n1.Add(n2)
			if l := bisector.Length(); l > zeroLengthThreshold {
				bisector = bisector.Mul(1 / l)
				b.emit(p.Add(bisector.Mul(d / sinHalf)))
			}
			return
		}
	case graphics.LineJoinRound:
		angle := math.Acos(math.Max(-1, math.Min(1, cosTheta)))
		if !outer {
			angle = -angle
		}
		if sinTheta < 0 {
			angle = -angle
		}
		b.addArc(p, d, n1, angle)
	}
	// Bevel (or miter past its limit): the bracketing offset points
	// already emitted are enough.
}

func (b *builder) addArc(center vec.Vec2, radius float64, startDir vec.Vec2, sweep float64) {
	flatness := b.style.Flatness
	if flatness <= 0 {
		flatness = 0.25
	}
	angleStep := 2 * math.Acos(math.Max(-1, 1-flatness/radius))
	if angleStep <= 0 || math.IsNaN(angleStep) {
		angleStep = math.Pi / 4
	}
	n := int(math.Ceil(math.Abs(sweep) / angleStep))
	if n < 1 {
		n = 1
	}
	dt := sweep / float64(n)
	for i := 1; i <= n; i++ {
		angle := float64(i) * dt
		cos, sin := math.Cos(angle), math.Sin(angle)
		dir := vec.Vec2{X: startDir.X*cos - startDir.Y*sin, Y: startDir.X*sin + startDir.Y*cos}
		b.emit(center.Add(dir.Mul(radius)))
	}
}
