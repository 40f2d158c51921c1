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
	"hensel.name/cq/internal/dict"
)

// Reduce turns the phase-2 arrangement into a boolean combination of
// the input polygons, per §4.5. truthTable is indexed by membership
// mask; truthTable[k] is the desired output for points lying in exactly
// the polygons named by mask k. An edge survives iff it separates a
// "keep" region from a "don't keep" region.
func (s *Sweep) Reduce(truthTable []bool) error {
	if s.phase == phaseInput {
		return cqerr.New(cqerr.InvalidArrangement, "Reduce", "Intersect must run before Reduce")
	}

	var agenda *dict.Node
	for _, e := range s.resultList {
		agenda, _ = dict.Insert(agenda, &e.Left.agenda, vertexCmpClosure(&e.Left), dict.DupLast, nil)
		agenda, _ = dict.Insert(agenda, &e.Right.agenda, vertexCmpClosure(&e.Right), dict.DupLast, nil)
	}

	var active *dict.Node
	kept := s.resultList[:0:0]
	for {
		m := dict.Min(agenda)
		if m == nil {
			break
		}
		v := treeGetVertex(m)
		agenda = dict.Remove(agenda, m, nil)
		e := edgeOf(v)

		if v.Side == LeftSide {
			_, ref := dict.FindRef(active, activePointCmp(v.Vec2), dict.DupLast)
			active = dict.InsertRef(active, ref, &e.tree, nil)

			below := uint64(0)
			if pred := treeGetEdgeOrNil(dict.Prev(&e.tree)); pred != nil {
				below = pred.Below ^ pred.Membership
			}
			e.Below = below
			above := below ^ e.Membership
			belowFilled := truthIndex(truthTable, below)
			aboveFilled := truthIndex(truthTable, above)
			e.Keep = belowFilled != aboveFilled
			e.FillAbove = aboveFilled
			continue
		}

		active = dict.Remove(active, &e.tree, nil)
		if e.Keep {
			kept = append(kept, e)
		}
	}

	s.resultList = kept
	s.phase = phaseReduced
	return nil
}

func truthIndex(table []bool, mask uint64) bool {
	if mask >= uint64(len(table)) {
		return false
	}
	return table[mask]
}

func vertexCmpClosure(v *Vertex) dict.Cmp {
	return func(n *dict.Node) int { return vertexAgendaCmp(v, treeGetVertex(n)) }
}
