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

// Package dict implements an intrusive, augmented red-black tree: an
// ordered dictionary whose nodes are embedded directly in caller structs
// (edges, bundles, ...) rather than boxed separately, so that tree
// operations never allocate.
//
// The tree intentionally allows a red root, which keeps Join3 and Split
// free of a final "force root black" special case. Every mutating
// operation accepts an optional Augmenter so a caller can maintain a
// subtree-wide aggregate (for example, a membership XOR) alongside the
// ordering.
package dict

// colour of a node. Red/black per CLR; the root may be red.
type colour uint8

const (
	black colour = 0
	red   colour = 1
)

// Node is the intrusive link. Embed it by value in the struct being
// indexed. The zero Node is a valid, unlinked node.
type Node struct {
	parent *Node
	child  [2]*Node // 0 = left (smaller keys), 1 = right (larger keys)
	height uint32   // black-height, i.e. black nodes from here to a nil leaf
	colour colour

	// User lets a caller recover the struct that embeds this Node (the
	// Go analogue of container_of, without resorting to unsafe). Set it
	// once when the node is created.
	User any
}

func nodeHeight(n *Node) uint32 {
	if n == nil {
		return 0
	}
	return n.height
}

func fixHeight(n *Node) {
	h := nodeHeight(n.child[0])
	if n.colour == black {
		h++
	}
	n.height = h
}

func isRed(n *Node) bool {
	return n != nil && n.colour == red
}

// AugKind identifies the structural event passed to an Augmenter.
type AugKind int

const (
	// AugLeft and AugRight fire on a rotation; main is the node that became
	// the new local subtree root, aux is the old root (now main's child).
	AugLeft AugKind = iota
	AugRight
	// AugNop and AugNop2 fire while rebalancing walks up toward the root
	// without structural change at this step (NOP2 also touches the
	// parent).
	AugNop
	AugNop2
	// AugFini fires once at the top of a rebalanced path so an
	// augmentation can finish propagating to the root.
	AugFini
	// AugAdd fires when a new leaf is attached.
	AugAdd
	// AugCutSwap fires when a 2-child node is swapped with its in-order
	// successor before the structural cut.
	AugCutSwap
	// AugCutLeaf fires after a leaf (or half-leaf) has been unlinked.
	AugCutLeaf
	// AugJoin fires when Join3 produces a new root from l, m, r.
	AugJoin
	// AugSplit fires on the node about to be dissolved into two subtrees,
	// before the split happens.
	AugSplit
)

// Augmenter receives structural-change notifications.
type Augmenter interface {
	Event(main, aux *Node, kind AugKind)
}

func notify(aug Augmenter, main, aux *Node, kind AugKind) {
	if aug != nil {
		aug.Event(main, aux, kind)
	}
}

// DupPolicy controls what Find/Insert do when the comparator reports a
// key already present in the tree.
type DupPolicy int

const (
	// DupAny returns/replaces whichever equal node the search happens to
	// land on.
	DupAny DupPolicy = iota
	// DupFirst keeps searching left past an equal match, so duplicates
	// are ordered before existing equal keys (leftmost).
	DupFirst
	// DupLast keeps searching right past an equal match (rightmost).
	DupLast
)

// Cmp compares a fixed search key against n, returning <0, 0 or >0 the
// way the search key relates to n. Implementations close over the key.
type Cmp func(n *Node) int

// Ref describes where a key would be inserted, as found by Find. It lets
// a caller insert without re-running the comparator.
type Ref struct {
	parent *Node
	side   int // which child slot of parent
	empty  bool
}

// rotate promotes x's child on side `other` to take x's place. dir
// selects the rotation direction: 0 rotates left (promotes the right
// child), 1 rotates right (promotes the left child).
func rotate(root, x *Node, dir int, aug Augmenter) *Node {
	other := 1 - dir
	y := x.child[other]
	p := x.parent

	x.child[other] = y.child[dir]
	if y.child[dir] != nil {
		y.child[dir].parent = x
	}
	y.child[dir] = x
	x.parent = y
	y.parent = p

	if p != nil {
		if p.child[0] == x {
			p.child[0] = y
		} else {
			p.child[1] = y
		}
	} else {
		root = y
	}

	fixHeight(x)
	fixHeight(y)

	kind := AugLeft
	if dir == 1 {
		kind = AugRight
	}
	notify(aug, y, x, kind)
	return root
}

// Find searches for a key described by cmp, applying dup to break ties.
// It returns the matching node, or nil if none exists.
func Find(root *Node, cmp Cmp, dup DupPolicy) *Node {
	n, _ := find(root, cmp, dup)
	return n
}

// FindRef searches like Find, additionally returning a Ref describing
// where the key would be inserted (valid whether or not a match was
// found), for use with InsertRef.
func FindRef(root *Node, cmp Cmp, dup DupPolicy) (*Node, Ref) {
	return find(root, cmp, dup)
}

func find(root *Node, cmp Cmp, dup DupPolicy) (*Node, Ref) {
	cur := root
	var parent *Node
	side := 0
	var match *Node
	for cur != nil {
		i := cmp(cur)
		if i == 0 {
			match = cur
			switch dup {
			case DupFirst:
				parent, side = cur, 0
				cur = cur.child[0]
				continue
			case DupLast:
				parent, side = cur, 1
				cur = cur.child[1]
				continue
			default:
				return match, Ref{parent: cur.parent, side: side, empty: root == nil}
			}
		}
		parent = cur
		if i < 0 {
			side = 0
			cur = cur.child[0]
		} else {
			side = 1
			cur = cur.child[1]
		}
	}
	return match, Ref{parent: parent, side: side, empty: root == nil}
}

// InsertAt inserts node immediately before (side=0) or after (side=1) at,
// without a comparator — used when the relative order is already known
// (e.g. a sweep placing a freshly split edge next to its origin).
func InsertAt(root, at, node *Node, side int, aug Augmenter) *Node {
	if at == nil {
		return insertNode(root, nil, node, 0, aug)
	}
	if at.child[side] == nil {
		return insertNode(root, at, node, side, aug)
	}
	// walk to the adjacent leaf position: predecessor's rightmost
	// descendant (side==0) or successor's leftmost descendant (side==1).
	p := at.child[side]
	other := 1 - side
	for p.child[other] != nil {
		p = p.child[other]
	}
	return insertNode(root, p, node, other, aug)
}

// InsertRef inserts node at a position previously returned by FindRef,
// without re-running the comparator.
func InsertRef(root *Node, ref Ref, node *Node, aug Augmenter) *Node {
	if ref.parent == nil {
		return insertNode(root, nil, node, 0, aug)
	}
	return insertNode(root, ref.parent, node, ref.side, aug)
}

// Insert searches for the key via cmp and, if absent (or dup allows
// multiple), inserts node. It returns the new root and any existing
// node with an equal key (nil if none, or if dup permits duplicates).
func Insert(root *Node, node *Node, cmp Cmp, dup DupPolicy, aug Augmenter) (*Node, *Node) {
	existing, ref := find(root, cmp, dup)
	if existing != nil && dup == DupAny {
		return root, existing
	}
	root = InsertRef(root, ref, node, aug)
	return root, existing
}

func insertNode(root, parent *Node, node *Node, side int, aug Augmenter) *Node {
	node.child[0] = nil
	node.child[1] = nil
	node.parent = parent
	node.colour = red
	node.height = 0
	fixHeight(node)

	if parent == nil {
		node.colour = black
		fixHeight(node)
		notify(aug, node, nil, AugAdd)
		return node
	}
	parent.child[side] = node
	notify(aug, node, nil, AugAdd)
	return balanceInsert(root, node, aug)
}

func sibling(n *Node) *Node {
	p := n.parent
	if p.child[0] == n {
		return p.child[1]
	}
	return p.child[0]
}

func childSide(p, n *Node) int {
	if p.child[0] == n {
		return 0
	}
	return 1
}

// balanceInsert is the classic CLR insert-fixup loop, extended with
// augmentation notifications on every step up the tree.
func balanceInsert(root, n *Node, aug Augmenter) *Node {
	for n.parent != nil && isRed(n.parent) {
		p := n.parent
		g := p.parent
		if g == nil {
			// Allow-red-root: a red parent with no grandparent means the
			// parent *is* the root; leave it red and stop.
			break
		}
		pside := childSide(g, p)
		u := g.child[1-pside]

		if isRed(u) {
			p.colour = black
			u.colour = black
			g.colour = red
			fixHeight(p)
			fixHeight(u)
			fixHeight(g)
			notify(aug, g, nil, AugNop)
			n = g
			continue
		}

		nside := childSide(p, n)
		if nside != pside {
			// inner case: rotate n into p's place first
			root = rotate(root, p, 1-nside, aug)
			n, p = p, n
		}
		p.colour = black
		g.colour = red
		root = rotate(root, g, 1-pside, aug)
		notify(aug, p, g, AugFini)
		break
	}
	if n.parent == nil {
		n.colour = black
		fixHeight(n)
	}
	notify(aug, root, nil, AugFini)
	return root
}

// Remove deletes node from the tree, returning the new root.
func Remove(root, node *Node, aug Augmenter) *Node {
	if node.child[0] != nil && node.child[1] != nil {
		succ := node.child[1]
		for succ.child[0] != nil {
			succ = succ.child[0]
		}
		notify(aug, succ, node, AugCutSwap)
		root = swapNodes(root, node, succ, aug)
	}

	// node now has at most one child.
	var child *Node
	if node.child[0] != nil {
		child = node.child[0]
	} else {
		child = node.child[1]
	}

	p := node.parent
	wasBlack := node.colour == black
	if child != nil {
		child.parent = p
	}
	if p == nil {
		root = child
	} else {
		if p.child[0] == node {
			p.child[0] = child
		} else {
			p.child[1] = child
		}
		fixHeight(p)
	}
	notify(aug, node, child, AugCutLeaf)

	if wasBlack {
		root = balanceRemove(root, p, child, aug)
	}
	if root != nil {
		notify(aug, root, nil, AugFini)
	}
	node.parent, node.child[0], node.child[1] = nil, nil, nil
	node.height = 0
	return root
}

// balanceRemove is the classic CLR delete-fixup. p is the parent at
// which the black-height deficit starts (x's parent, since x itself may
// be nil); x is the node that lost a black ancestor.
func balanceRemove(root, p, x *Node, aug Augmenter) *Node {
	for p != nil && !isRed(x) {
		side := 0
		if p.child[0] != x {
			side = 1
		}
		other := 1 - side
		w := p.child[other]
		if w == nil {
			break
		}
		if isRed(w) {
			w.colour = black
			p.colour = red
			root = rotate(root, p, side, aug)
			w = p.child[other]
			if w == nil {
				break
			}
		}
		if !isRed(w.child[0]) && !isRed(w.child[1]) {
			w.colour = red
			fixHeight(w)
			notify(aug, p, w, AugNop2)
			x = p
			p = x.parent
			continue
		}
		if !isRed(w.child[other]) {
			if w.child[side] != nil {
				w.child[side].colour = black
			}
			w.colour = red
			root = rotate(root, w, other, aug)
			w = p.child[other]
		}
		w.colour = p.colour
		p.colour = black
		if w.child[other] != nil {
			w.child[other].colour = black
		}
		root = rotate(root, p, side, aug)
		x = root
		break
	}
	if x != nil {
		x.colour = black
		fixHeight(x)
	}
	return root
}

// swapNodes exchanges the positions of a and b in the tree in O(1),
// correctly handling the case where one is the other's parent.
func swapNodes(root, a, b *Node, aug Augmenter) *Node {
	if a.parent == b {
		a, b = b, a
	}
	aAdjacent := b.parent == a

	ap, bp := a.parent, b.parent
	ac, bc := a.child, b.child

	if aAdjacent {
		aside := 0
		if a.child[1] == b {
			aside = 1
		}
		a.parent = b
		b.child[aside] = a
		other := 1 - aside
		b.child[other] = ac[other]
		if ac[other] != nil {
			ac[other].parent = b
		}
		a.child[0], a.child[1] = bc[0], bc[1]
		if bc[0] != nil {
			bc[0].parent = a
		}
		if bc[1] != nil {
			bc[1].parent = a
		}
		b.parent = ap
		if ap != nil {
			if ap.child[0] == a {
				ap.child[0] = b
			} else {
				ap.child[1] = b
			}
		} else {
			root = b
		}
	} else {
		a.parent, b.parent = bp, ap
		if bp != nil {
			if bp.child[0] == b {
				bp.child[0] = a
			} else {
				bp.child[1] = a
			}
		} else {
			root = a
		}
		if ap != nil {
			if ap.child[0] == a {
				ap.child[0] = b
			} else {
				ap.child[1] = b
			}
		} else {
			root = b
		}
		a.child[0], a.child[1] = bc[0], bc[1]
		b.child[0], b.child[1] = ac[0], ac[1]
		for _, c := range a.child {
			if c != nil {
				c.parent = a
			}
		}
		for _, c := range b.child {
			if c != nil {
				c.parent = b
			}
		}
	}
	a.colour, b.colour = b.colour, a.colour
	a.height, b.height = b.height, a.height
	return root
}

// Swap exchanges the tree positions of a and b without moving the root
// (neither a nor b is the root). Use SwapUpdateRoot if either might be.
func Swap(a, b *Node, aug Augmenter) {
	swapNodes(nil, a, b, aug)
}

// SwapUpdateRoot exchanges a and b, updating *root if either was it.
func SwapUpdateRoot(root **Node, a, b *Node, aug Augmenter) {
	r := *root
	if r == a || r == b {
		r = swapNodes(r, a, b, aug)
	} else {
		swapNodes(nil, a, b, aug)
	}
	*root = r
}

// SwapUpdateRoot2 is SwapUpdateRoot for the case where a and b live in
// two different trees with independently tracked roots.
func SwapUpdateRoot2(root1, root2 **Node, a, b *Node, aug Augmenter) {
	r1, r2 := *root1, *root2
	if r1 == a {
		r1 = b
	} else if r2 == a {
		r2 = b
	}
	if r1 == b {
		r1 = a
	} else if r2 == b {
		r2 = a
	}
	swapNodes(nil, a, b, aug)
	*root1, *root2 = r1, r2
}

// Child returns n's side child (0=left, 1=right), or nil. Augmenters
// that maintain a subtree aggregate (e.g. a membership XOR) need this to
// recompute a node's value from its children after a structural event;
// everything else about Node stays unexported.
func Child(n *Node, side int) *Node {
	if n == nil {
		return nil
	}
	return n.child[side]
}

// Min returns the smallest node in the tree rooted at root.
func Min(root *Node) *Node {
	if root == nil {
		return nil
	}
	for root.child[0] != nil {
		root = root.child[0]
	}
	return root
}

// Max returns the largest node in the tree rooted at root.
func Max(root *Node) *Node {
	if root == nil {
		return nil
	}
	for root.child[1] != nil {
		root = root.child[1]
	}
	return root
}

// Next returns the in-order successor of n, or nil if n is the maximum.
func Next(n *Node) *Node {
	return adjacent(n, 1)
}

// Prev returns the in-order predecessor of n, or nil if n is the minimum.
func Prev(n *Node) *Node {
	return adjacent(n, 0)
}

func adjacent(n *Node, side int) *Node {
	other := 1 - side
	if n.child[side] != nil {
		n = n.child[side]
		for n.child[other] != nil {
			n = n.child[other]
		}
		return n
	}
	p := n.parent
	for p != nil && p.child[side] == n {
		n = p
		p = p.parent
	}
	return p
}

// setColour is used by join/split to install a black root.
func setColour(n *Node, c colour) {
	if n != nil {
		n.colour = c
		fixHeight(n)
	}
}

// Join3 merges tree l, singleton node m, and tree r, in order, into one
// tree, in O(|height(l)-height(r)|). The caller guarantees every key in
// l is <= m's key <= every key in r; this is not checked.
func Join3(l, m, r *Node, aug Augmenter) *Node {
	m.child[0], m.child[1] = nil, nil

	hl, hr := nodeHeight(l), nodeHeight(r)
	switch {
	case hl == hr:
		m.child[0], m.child[1] = l, r
		if l != nil {
			l.parent = m
		}
		if r != nil {
			r.parent = m
		}
		m.colour = red
		fixHeight(m)
		setColour(m, black)
		notify(aug, m, nil, AugJoin)
		return m

	case hl > hr:
		// walk down l's right spine to a subtree of height hr (or hr+1 if
		// black, to attach under a black node of the matching height).
		root := l
		cur := l
		var parent *Node
		for nodeHeight(cur) > hr || (nodeHeight(cur) == hr && isRed(cur)) {
			parent = cur
			cur = cur.child[1]
		}
		m.child[0], m.child[1] = cur, r
		if cur != nil {
			cur.parent = m
		}
		if r != nil {
			r.parent = m
		}
		m.colour = red
		fixHeight(m)
		m.parent = parent
		if parent != nil {
			parent.child[1] = m
			root = fixupAfterGraft(root, m, aug)
		} else {
			root = m
			setColour(root, black)
		}
		notify(aug, root, nil, AugJoin)
		return root

	default:
		root := r
		cur := r
		var parent *Node
		for nodeHeight(cur) > hl || (nodeHeight(cur) == hl && isRed(cur)) {
			parent = cur
			cur = cur.child[0]
		}
		m.child[0], m.child[1] = l, cur
		if l != nil {
			l.parent = m
		}
		if cur != nil {
			cur.parent = m
		}
		m.colour = red
		fixHeight(m)
		m.parent = parent
		if parent != nil {
			parent.child[0] = m
			root = fixupAfterGraft(root, m, aug)
		} else {
			root = m
			setColour(root, black)
		}
		notify(aug, root, nil, AugJoin)
		return root
	}
}

// fixupAfterGraft restores red-black balance after m has been spliced in
// as a red node replacing a same-black-height subtree.
func fixupAfterGraft(root, m *Node, aug Augmenter) *Node {
	p := m.parent
	for p != nil {
		fixHeight(p)
		p = p.parent
	}
	return balanceInsert(root, m, aug)
}

// Join2 merges l and r (every key in l <= every key in r) without a
// middle element, by extracting r's minimum and delegating to Join3.
func Join2(l, r *Node, aug Augmenter) *Node {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	m := Min(r)
	r2 := Remove(r, m, aug)
	return Join3(l, m, r2, aug)
}

// Split partitions root by cmp into (l, r) such that every node in l
// compares < the split key and every node in r compares > the split
// key. A node exactly equal to the split key goes to r unless
// onEqualGoesRight is false, in which case it goes to l.
func Split(root *Node, cmp Cmp, onEqualGoesRight bool, aug Augmenter) (*Node, *Node) {
	if root == nil {
		return nil, nil
	}
	i := cmp(root)
	left, right := root.child[0], root.child[1]
	if left != nil {
		left.parent = nil
	}
	if right != nil {
		right.parent = nil
	}
	notify(aug, root, nil, AugSplit)

	goRight := i >= 0
	if i == 0 {
		goRight = onEqualGoesRight
	}

	if i < 0 {
		l2, r2 := Split(left, cmp, onEqualGoesRight, aug)
		return l2, Join3(r2, root, right, aug)
	}
	if i > 0 {
		l2, r2 := Split(right, cmp, onEqualGoesRight, aug)
		return Join3(left, root, l2, aug), r2
	}
	if goRight {
		return left, Join3(nil, root, right, aug)
	}
	return Join3(left, root, nil, aug), right
}

// Each calls f for every node in ascending order. f may remove the
// current node (and only the current node) from the tree.
func Each(root *Node, f func(n *Node)) {
	n := Min(root)
	for n != nil {
		next := Next(n)
		f(n)
		n = next
	}
}

// IsMember reports whether n is currently linked into some tree (either
// as the root or with a parent).
func IsMember(n *Node) bool {
	return n.parent != nil || n.child[0] != nil || n.child[1] != nil || n.height != 0
}
