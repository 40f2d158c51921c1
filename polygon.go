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

import "hensel.name/cq/cqerr"

// Polygonize recovers ordered closed paths from the (optionally
// reduced) result set, per §4.6. Every ring traceFaces finds borders
// exactly one face; r.filled (derived from Reduce's per-edge
// Below/FillAbove winding classification, not from the ring's signed
// area) tells whether that face is part of the kept region, and only
// those rings are emitted.
//
// A hole nested in an outer boundary (a donut) traces as two filled
// rings: the outer shell (positive area, same winding as the input
// boundary) and the hole's own rim as seen from the annulus (negative
// area, the opposite winding). Both are emitted as independent Path
// entries rather than spliced into one contour — per §4.6's "merge two
// rings", this is the arm-merge case's outcome restated for a renderer
// that fills with the nonzero winding rule: two oppositely-wound
// subpaths of one Poly.Path already cancel over the hole, so no bridge
// edge between them is needed here (Triangulate, which ear-clips a
// single simple ring, does need one; see mergeHoleIntoShell).
func (s *Sweep) Polygonize() (*Poly, error) {
	if s.phase == phaseInput {
		return nil, cqerr.New(cqerr.InvalidArrangement, "Polygonize", "Intersect must run before Polygonize")
	}
	rings, err := traceFaces(s.resultList)
	if err != nil {
		return nil, err
	}

	pts := newPointRegistry()
	poly := &Poly{}
	for _, r := range rings {
		if !r.filled {
			continue
		}
		var path Path
		for _, v := range r.verts {
			path.Point = append(path.Point, pts.get(v))
		}
		poly.Path = append(poly.Path, path)
	}
	poly.Point = pts.point
	return poly, nil
}
