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

package dict

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

type keyNode struct {
	Node
	key int
}

func cmpKey(k int) Cmp {
	return func(n *Node) int {
		kn := n.User.(*keyNode)
		switch {
		case k < kn.key:
			return -1
		case k > kn.key:
			return 1
		default:
			return 0
		}
	}
}

func newKeyNode(k int) *keyNode {
	kn := &keyNode{key: k}
	kn.Node.User = kn
	return kn
}

func inorderKeys(root *Node) []int {
	var out []int
	Each(root, func(n *Node) {
		out = append(out, n.User.(*keyNode).key)
	})
	return out
}

// fataler is satisfied by both *testing.T and *rapid.T, so
// checkRedBlack can run inside both plain and property-based tests.
type fataler interface {
	Fatalf(format string, args ...any)
}

// checkRedBlack walks every root-to-leaf path and fails the test if they
// don't all carry the same count of black nodes, the defining red-black
// invariant.
func checkRedBlack(t fataler, root *Node) {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil {
			return 1
		}
		if isRed(n) {
			if isRed(n.child[0]) || isRed(n.child[1]) {
				t.Fatalf("red node %v has a red child", n.User)
			}
		}
		if n.child[0] != nil && n.child[0].parent != n {
			t.Fatalf("left child parent pointer broken at %v", n.User)
		}
		if n.child[1] != nil && n.child[1].parent != n {
			t.Fatalf("right child parent pointer broken at %v", n.User)
		}
		lh := walk(n.child[0])
		rh := walk(n.child[1])
		if lh != rh {
			t.Fatalf("black-height mismatch at %v: left=%d right=%d", n.User, lh, rh)
		}
		if isRed(n) {
			return lh
		}
		return lh + 1
	}
	walk(root)
}

func TestInsertFindOrder(t *testing.T) {
	var root *Node
	values := []int{5, 3, 8, 1, 9, 2, 7, 4, 6, 0}
	for _, v := range values {
		kn := newKeyNode(v)
		root, _ = Insert(root, &kn.Node, cmpKey(v), DupAny, nil)
		checkRedBlack(t, root)
	}

	got := inorderKeys(root)
	want := append([]int{}, values...)
	sort.Ints(want)
	if len(got) != len(want) {
		t.Fatalf("inorder = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inorder = %v, want %v", got, want)
		}
	}

	for _, v := range values {
		n := Find(root, cmpKey(v), DupAny)
		if n == nil || n.User.(*keyNode).key != v {
			t.Fatalf("Find(%d) failed", v)
		}
	}
	if n := Find(root, cmpKey(100), DupAny); n != nil {
		t.Fatalf("Find(100) = %v, want nil", n.User)
	}
}

func TestRemoveAllOrders(t *testing.T) {
	values := []int{15, 3, 8, 1, 9, 2, 7, 4, 20, 6, 0, 17, 12}
	var root *Node
	nodes := make(map[int]*keyNode)
	for _, v := range values {
		kn := newKeyNode(v)
		nodes[v] = kn
		root, _ = Insert(root, &kn.Node, cmpKey(v), DupAny, nil)
	}

	for _, v := range values {
		kn := nodes[v]
		if !IsMember(&kn.Node) {
			t.Fatalf("node %d reports not a member before removal", v)
		}
		root = Remove(root, &kn.Node, nil)
		checkRedBlack(t, root)
		if IsMember(&kn.Node) {
			t.Fatalf("node %d still reports IsMember after Remove", v)
		}
		if n := Find(root, cmpKey(v), DupAny); n != nil {
			t.Fatalf("Find(%d) succeeded after removal", v)
		}
	}
	if root != nil {
		t.Fatalf("root = %v after removing every node, want nil", root.User)
	}
}

func TestDupPolicyOrdering(t *testing.T) {
	var root *Node
	first := newKeyNode(5)
	root, existing := Insert(root, &first.Node, cmpKey(5), DupFirst, nil)
	if existing != nil {
		t.Fatalf("first insert reported an existing match")
	}
	second := newKeyNode(5)
	root, _ = Insert(root, &second.Node, cmpKey(5), DupFirst, nil)
	third := newKeyNode(5)
	root, _ = Insert(root, &third.Node, cmpKey(5), DupLast, nil)

	order := []*Node{}
	Each(root, func(n *Node) { order = append(order, n) })
	if len(order) != 3 {
		t.Fatalf("len(order) = %d, want 3", len(order))
	}
	// DupFirst(second) must land before first; DupLast(third) after both.
	if order[0] != &second.Node || order[1] != &first.Node || order[2] != &third.Node {
		t.Fatalf("dup ordering wrong")
	}
}

func TestSplitJoin(t *testing.T) {
	var root *Node
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	for _, v := range values {
		kn := newKeyNode(v)
		root, _ = Insert(root, &kn.Node, cmpKey(v), DupAny, nil)
	}

	l, r := Split(root, cmpKey(5), true, nil)
	checkRedBlack(t, l)
	checkRedBlack(t, r)

	lKeys := inorderKeys(l)
	rKeys := inorderKeys(r)
	for _, k := range lKeys {
		if k >= 5 {
			t.Fatalf("left partition contains %d, want < 5", k)
		}
	}
	for _, k := range rKeys {
		if k < 5 {
			t.Fatalf("right partition contains %d, want >= 5", k)
		}
	}
	if len(lKeys)+len(rKeys) != len(values) {
		t.Fatalf("split lost nodes: %d + %d != %d", len(lKeys), len(rKeys), len(values))
	}

	joined := Join2(l, r, nil)
	checkRedBlack(t, joined)
	joinedKeys := inorderKeys(joined)
	if len(joinedKeys) != len(values) {
		t.Fatalf("Join2 lost nodes: got %d, want %d", len(joinedKeys), len(values))
	}
	for i := range joinedKeys {
		if joinedKeys[i] != values[i] {
			t.Fatalf("Join2 order = %v, want %v", joinedKeys, values)
		}
	}
}

func TestSwapUpdateRoot(t *testing.T) {
	var root *Node
	values := []int{1, 2, 3, 4, 5}
	nodes := make(map[int]*keyNode)
	for _, v := range values {
		kn := newKeyNode(v)
		nodes[v] = kn
		root, _ = Insert(root, &kn.Node, cmpKey(v), DupAny, nil)
	}

	a, b := &nodes[1].Node, &nodes[5].Node
	SwapUpdateRoot(&root, a, b, nil)
	checkRedBlack(t, root)

	// Tree still holds exactly the same User pointers, in some order;
	// swapping tree position must not change which keys are present.
	got := make(map[int]bool)
	Each(root, func(n *Node) { got[n.User.(*keyNode).key] = true })
	for _, v := range values {
		if !got[v] {
			t.Fatalf("key %d missing after SwapUpdateRoot", v)
		}
	}
}

// countNode is a keyNode that also tracks its subtree size, kept
// current by countAug on every structural event.
type countNode struct {
	keyNode
	count int
}

type countAug struct{}

func cmpCountKey(k int) Cmp {
	return func(n *Node) int {
		cn := n.User.(*countNode)
		switch {
		case k < cn.key:
			return -1
		case k > cn.key:
			return 1
		default:
			return 0
		}
	}
}

func recomputeCount(n *Node) {
	if n == nil {
		return
	}
	cn := n.User.(*countNode)
	cn.count = 1
	if l := Child(n, 0); l != nil {
		cn.count += l.User.(*countNode).count
	}
	if r := Child(n, 1); r != nil {
		cn.count += r.User.(*countNode).count
	}
}

func (countAug) Event(main, aux *Node, kind AugKind) {
	switch kind {
	case AugLeft, AugRight:
		recomputeCount(aux)
		recomputeCount(main)
	case AugCutLeaf:
		recomputeCount(aux)
	default:
		recomputeCount(main)
	}
}

// TestAugmenterTracksSubtreeSize drives a subtree-size Augmenter through
// inserts and removals and checks every node's count against a direct
// walk, exercising the Augmenter/Child contract on its own (no
// application-level caller currently needs it).
func TestAugmenterTracksSubtreeSize(t *testing.T) {
	var aug countAug
	var root *Node
	values := []int{5, 3, 8, 1, 9, 2, 7, 4, 6, 0, 10, 11}
	nodes := make(map[int]*countNode)
	for _, v := range values {
		cn := &countNode{}
		cn.key = v
		cn.User = cn
		nodes[v] = cn
		root, _ = Insert(root, &cn.Node, cmpCountKey(v), DupAny, aug)
		checkSubtreeCounts(t, root)
	}

	for _, v := range []int{3, 9, 0, 7} {
		root = Remove(root, &nodes[v].Node, aug)
		checkSubtreeCounts(t, root)
	}
}

func checkSubtreeCounts(t *testing.T, root *Node) {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil {
			return 0
		}
		want := 1 + walk(Child(n, 0)) + walk(Child(n, 1))
		if got := n.User.(*countNode).count; got != want {
			t.Fatalf("node %d count = %d, want %d", n.User.(*countNode).key, got, want)
		}
		return want
	}
	walk(root)
}

// TestRedBlackPropertyRandom exercises random insert/remove sequences and
// checks the red-black invariants and in-order correctness after every
// mutation.
func TestRedBlackPropertyRandom(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var root *Node
		present := map[int]*keyNode{}

		n := rapid.IntRange(1, 100).Draw(rt, "n")
		for range n {
			k := rapid.IntRange(0, 30).Draw(rt, "key")
			if kn, ok := present[k]; ok {
				root = Remove(root, &kn.Node, nil)
				delete(present, k)
			} else {
				kn := newKeyNode(k)
				root, _ = Insert(root, &kn.Node, cmpKey(k), DupAny, nil)
				present[k] = kn
			}
			checkRedBlack(rt, root)
		}

		want := make([]int, 0, len(present))
		for k := range present {
			want = append(want, k)
		}
		sort.Ints(want)
		got := inorderKeys(root)
		if len(got) != len(want) {
			rt.Fatalf("inorder = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("inorder = %v, want %v", got, want)
			}
		}
	})
}
