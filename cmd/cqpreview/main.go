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

// Command cqpreview runs one of the engine's built-in test scenarios
// through Intersect, Reduce (optional) and Polygonize or Triangulate,
// and rasterizes the result to a PNG so the arrangement can be eyeballed.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/vector"

	"hensel.name/cq"
	"hensel.name/cq/cqlog"
	"hensel.name/cq/geomx"
)

func main() {
	scenario := flag.String("scenario", "S1", "built-in scenario: S1-S6")
	op := flag.String("op", "polygonize", "polygonize or triangulate")
	out := flag.String("out", "preview.png", "output PNG path")
	width := flag.Int("width", 512, "output image width")
	height := flag.Int("height", 512, "output image height")
	scale := flag.Float64("scale", 16, "pixels per grid unit")
	flag.Parse()

	log := cqlog.Default()

	poly, err := runScenario(*scenario, *op)
	if err != nil {
		log.Error("scenario failed", "scenario", *scenario, "error", err)
		os.Exit(1)
	}
	log.Info("arrangement recovered", "paths", len(poly.Path), "triangles", len(poly.Tri), "points", len(poly.Point))

	img := rasterize(poly, *width, *height, *scale)
	if err := writePNG(*out, img); err != nil {
		log.Error("write png", "path", *out, "error", err)
		os.Exit(1)
	}
	log.Info("wrote preview", "path", *out)
}

// runScenario builds and runs one of the scenarios described in the
// engine's test suite (S1-S6), returning its Polygonize or Triangulate
// output.
func runScenario(name, op string) (*cq.Poly, error) {
	s := cq.NewSweep()
	var truthTable []bool

	switch name {
	case "S1":
		s.AddPoly(square(0, 0, 10), 0b01)
		s.AddPoly(square(5, 5, 10), 0b10)
		truthTable = []bool{false, true, true, false}
	case "S2":
		s.AddPoly([]geomx.Vec2{pt(0, 0), pt(10, 0), pt(5, 10)}, 0b01)
		s.AddPoly([]geomx.Vec2{pt(0, 5), pt(10, 5), pt(5, -5)}, 0b10)
		truthTable = []bool{false, true, false, false}
	case "S3":
		s.AddEdge(pt(0, 0), pt(10, 0), 0b01)
		s.AddEdge(pt(0, 0), pt(10, 0), 0b10)
	case "S4":
		s.AddEdge(pt(0, 0), pt(10, 10), 1)
		s.AddEdge(pt(0, 10), pt(10, 0), 1)
	case "S5":
		s.AddEdge(pt(0, 0), pt(7, 11), 1)
		s.AddEdge(pt(0, 11), pt(7, 0), 1)
	case "S6":
		s.AddPoly([]geomx.Vec2{pt(0, 0), pt(10, 10), pt(10, 0), pt(0, 10)}, 1)
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}

	if err := s.Intersect(); err != nil {
		return nil, err
	}
	if truthTable != nil {
		if err := s.Reduce(truthTable); err != nil {
			return nil, err
		}
	}

	if op == "triangulate" {
		return s.Triangulate()
	}
	return s.Polygonize()
}

func pt(x, y int32) geomx.Vec2 { return geomx.Vec2{X: geomx.Dim(x), Y: geomx.Dim(y)} }

func square(x, y, side int32) []geomx.Vec2 {
	return []geomx.Vec2{pt(x, y), pt(x+side, y), pt(x+side, y+side), pt(x, y+side)}
}

// rasterize fills every path (and every triangle, if present) of poly
// with x/image/vector, a grid unit at a time, offset so (0,0) lands
// near the image center.
func rasterize(poly *cq.Poly, width, height int, scale float64) *image.Gray {
	r := vector.NewRasterizer(width, height)
	ox, oy := float64(width)/4, float64(height)/4

	project := func(p geomx.Vec2) (float32, float32) {
		return float32(ox + float64(p.X)*scale), float32(oy + float64(p.Y)*scale)
	}

	drawRing := func(idx []int) {
		if len(idx) == 0 {
			return
		}
		x, y := project(poly.Point[idx[0]])
		r.MoveTo(x, y)
		for _, i := range idx[1:] {
			x, y := project(poly.Point[i])
			r.LineTo(x, y)
		}
		r.ClosePath()
	}

	for _, p := range poly.Path {
		drawRing(p.Point)
	}
	for _, t := range poly.Tri {
		drawRing(t.P[:])
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(color.Gray{Y: 0}), image.Point{})
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
