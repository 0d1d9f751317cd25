// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ucsmap

import "unsafe"

// treeBlockSize is the Pool block size used by every Tree's owning Pool,
// matching the original C library's fixed choice of 128 nodes per block.
const treeBlockSize = 128

// Iterator is an opaque handle to a live node in a Tree. It remains valid
// until the node it names is erased (by Remove/RemoveByIterator) or the
// Tree is cleared or destroyed. The zero value names no node ("end").
type Iterator = *treeNode

// treeNode is a single node's header, stored at the start of a Pool slot;
// mem points at the payload bytes immediately following the header
// within that same slot (possibly after alignment padding).
type treeNode struct {
	parent   *treeNode
	children [2]*treeNode
	balance  int8
	mem      unsafe.Pointer
}

// childIndex reports which child slot of its parent n occupies: 0 if n
// has no parent (the degenerate root case) or is its parent's left
// child, 1 if it is the right child. This exact tie-break (root reports
// 0) is load-bearing for the rebalance-on-remove walk.
func childIndex(n *treeNode) int {
	if n.parent == nil || n.parent.children[0] == n {
		return 0
	}
	return 1
}

// link sets parent's child-i pointer to child and, if child is non-nil,
// child's parent pointer back to parent.
func link(parent, child *treeNode, i int) {
	if child != nil {
		child.parent = parent
	}
	if parent != nil {
		parent.children[i] = child
	}
}

// TreeConfig configures a Tree. ElementSize/ElementAlignment describe the
// caller's payload (the bytes KeySet writes into and KeyGet reads from),
// not the node header, which the Tree adds on top automatically.
//
// KeySet writes key into freshly allocated payload memory. KeyGet reads a
// key back out of payload memory previously written by KeySet. KeyCmp is
// a total order over keys: negative if a < b, zero if equal, positive if
// a > b. All three must be non-nil.
type TreeConfig struct {
	ElementSize      uintptr
	ElementAlignment uintptr

	KeySet func(key any, payload unsafe.Pointer)
	KeyGet func(payload unsafe.Pointer) any
	KeyCmp func(a, b any) int
}

// Tree is a generic, ordered associative container: a self-balancing
// (AVL) binary search tree over nodes drawn from an owned Pool. See the
// package doc for a full usage example.
//
// Tree is not safe for concurrent use; see the package doc's Thread
// Safety section.
type Tree struct {
	_ noCopy

	pool Pool
	root *treeNode
	len  int

	elementMemOffset uintptr

	keySet func(key any, payload unsafe.Pointer)
	keyGet func(payload unsafe.Pointer) any
	keyCmp func(a, b any) int
}

// TreeObjectSize is an upper bound on the storage required by a Tree
// value, for callers that want to embed one via Init instead of NewTree.
const TreeObjectSize = unsafe.Sizeof(Tree{})

// TreeObjectAlignment is the required alignment of storage passed to
// (*Tree).Init.
const TreeObjectAlignment = unsafe.Alignof(Tree{})

// nodeHeaderSize/nodeHeaderAlignment describe the treeNode header that
// precedes every payload within a node's Pool slot.
var (
	nodeHeaderSize      = unsafe.Sizeof(treeNode{})
	nodeHeaderAlignment = unsafe.Alignof(treeNode{})
)

// NewTree validates cfg, constructs the Tree's owning Pool, and returns a
// new, empty Tree, or an error if cfg is invalid or its layout
// arithmetic would overflow.
func NewTree(cfg TreeConfig) (*Tree, error) {
	t := new(Tree)
	if err := t.Init(cfg); err != nil {
		return nil, err
	}
	return t, nil
}

// Init constructs a Tree in place into t, which the caller owns. t must
// not already be in use; re-initializing a Tree that owns nodes leaks
// them (call DestroyInPlace first).
func (t *Tree) Init(cfg TreeConfig) error {
	if cfg.ElementSize < 1 {
		return ErrInvalidConfig
	}
	if cfg.KeySet == nil || cfg.KeyGet == nil || cfg.KeyCmp == nil {
		panic("ucsmap: TreeConfig requires non-nil KeySet, KeyGet, KeyCmp")
	}

	alignment := cfg.ElementAlignment
	if alignment == 0 {
		alignment = 1
	}
	if !isPowerOfTwo(alignment) {
		return ErrInvalidConfig
	}
	if nodeHeaderAlignment > alignment {
		alignment = nodeHeaderAlignment
	}

	allocSize, ok := roundUpTo(nodeHeaderSize, alignment)
	if !ok {
		return ErrLayoutOverflow
	}
	elementMemOffset := allocSize

	allocSize, ok = checkedAdd(allocSize, cfg.ElementSize)
	if !ok {
		return ErrLayoutOverflow
	}
	allocSize, ok = roundUpTo(allocSize, alignment)
	if !ok {
		return ErrLayoutOverflow
	}

	*t = Tree{
		elementMemOffset: elementMemOffset,
		keySet:           cfg.KeySet,
		keyGet:           cfg.KeyGet,
		keyCmp:           cfg.KeyCmp,
	}
	return t.pool.Init(PoolConfig{
		BlockSize:        treeBlockSize,
		ElementSize:      allocSize,
		ElementAlignment: alignment,
	})
}

// DestroyInPlace releases every node owned by t (via its Pool), leaving
// t's own storage untouched. t must not be used afterwards except via
// another call to Init.
func (t *Tree) DestroyInPlace() {
	if t == nil {
		return
	}
	t.pool.DestroyInPlace()
	t.root = nil
	t.len = 0
}

// Destroy releases every node owned by t. See Pool.Destroy for why this
// differs from the original C API's free-the-object-itself semantics.
func (t *Tree) Destroy() {
	t.DestroyInPlace()
}

// Clear removes every key from t in O(blocks) time by bulk-resetting its
// Pool; it does not walk or free nodes individually.
func (t *Tree) Clear() {
	t.pool.FreeAll()
	t.root = nil
	t.len = 0
}

// Len returns the number of keys currently in t.
func (t *Tree) Len() int {
	return t.len
}

func (t *Tree) allocNode() *treeNode {
	slot := t.pool.Alloc()
	if slot == nil {
		return nil
	}
	n := (*treeNode)(slot)
	*n = treeNode{mem: unsafe.Add(slot, t.elementMemOffset)}
	return n
}

func (t *Tree) freeNode(n *treeNode) {
	t.pool.Free(unsafe.Pointer(n))
}

// Insert inserts key if not already present and returns its Iterator. If
// key is already present, the tree is left structurally unchanged and
// the existing node's Iterator is returned. Returns nil if a new node
// was needed and the owning Pool is out of memory; the tree is
// unchanged in that case.
func (t *Tree) Insert(key any) Iterator {
	if t.root == nil {
		n := t.allocNode()
		if n == nil {
			return nil
		}
		t.keySet(key, n.mem)
		t.root = n
		t.len++
		return n
	}

	node := t.root
	childI := 0
	for {
		c := t.keyCmp(key, t.keyGet(node.mem))
		if c == 0 {
			return node
		}
		if c < 0 {
			childI = 0
		} else {
			childI = 1
		}
		if node.children[childI] == nil {
			break
		}
		node = node.children[childI]
	}

	n := t.allocNode()
	if n == nil {
		return nil
	}
	t.keySet(key, n.mem)
	link(node, n, childI)
	t.rebalance(node, childI, rebalanceInsert)
	t.len++
	return n
}

// Remove removes key from t if present, returning true if it was found
// and removed.
func (t *Tree) Remove(key any) bool {
	return t.RemoveByIterator(t.Find(key))
}

// RemoveByIterator removes the node named by it, returning false if it
// is nil (a safe no-op).
func (t *Tree) RemoveByIterator(it Iterator) bool {
	node := it
	if node == nil {
		return false
	}

	childI := childIndex(node)
	if node.children[0] == nil || node.children[1] == nil {
		// At most one child.
		var next *treeNode
		if node.children[0] != nil {
			next = node.children[0]
		} else {
			next = node.children[1]
		}

		if t.root == node {
			t.root = next
			if next != nil {
				next.parent = nil
			}
		} else {
			link(node.parent, next, childI)
			t.rebalance(node.parent, childI, rebalanceRemove)
		}
	} else {
		// Two children: splice in the in-order successor.
		next := node.children[1]
		for next.children[0] != nil {
			next = next.children[0]
		}

		if t.root == node {
			t.root = next
		}

		link(next, node.children[0], 0)
		next.balance = node.balance

		if next.parent == node {
			link(node.parent, next, childI)
			t.rebalance(next, 1, rebalanceRemove)
		} else {
			parentNext := next.parent
			childINext := childIndex(next)

			link(parentNext, next.children[1], childINext)
			link(node.parent, next, childI)
			link(next, node.children[1], 1)
			t.rebalance(parentNext, childINext, rebalanceRemove)
		}
	}

	t.freeNode(node)
	t.len--
	return true
}

// Find returns the Iterator for key, or nil if key is not present.
func (t *Tree) Find(key any) Iterator {
	node := t.root
	for node != nil {
		c := t.keyCmp(key, t.keyGet(node.mem))
		if c == 0 {
			return node
		}
		if c < 0 {
			node = node.children[0]
		} else {
			node = node.children[1]
		}
	}
	return nil
}

// LowerBound returns the Iterator for the least key k' with k' >= key,
// or nil if no such key exists (including on an empty tree).
func (t *Tree) LowerBound(key any) Iterator {
	node := t.root
	var prev *treeNode

	for node != nil {
		c := t.keyCmp(key, t.keyGet(node.mem))
		if c == 0 {
			return node
		}
		prev = node
		if c < 0 {
			node = node.children[0]
		} else {
			node = node.children[1]
		}
	}

	if prev == nil {
		return nil
	}
	if t.keyCmp(key, t.keyGet(prev.mem)) < 0 {
		return prev
	}
	return t.Next(prev)
}

// Lower returns the Iterator for the least key in t, or nil if t is
// empty.
func (t *Tree) Lower() Iterator {
	node := t.root
	if node == nil {
		return nil
	}
	for node.children[0] != nil {
		node = node.children[0]
	}
	return node
}

// Upper returns the Iterator for the greatest key in t, or nil if t is
// empty.
func (t *Tree) Upper() Iterator {
	node := t.root
	if node == nil {
		return nil
	}
	for node.children[1] != nil {
		node = node.children[1]
	}
	return node
}

// Next returns the Iterator for the in-order successor of it, or nil if
// it names the greatest key.
func (t *Tree) Next(it Iterator) Iterator {
	node := it
	if node == nil {
		return nil
	}
	if node.children[1] != nil {
		node = node.children[1]
		for node.children[0] != nil {
			node = node.children[0]
		}
		return node
	}
	childI := 0
	for {
		childI = childIndex(node)
		node = node.parent
		if childI == 0 || node == nil {
			break
		}
	}
	return node
}

// Prev returns the Iterator for the in-order predecessor of it, or nil
// if it names the least key.
func (t *Tree) Prev(it Iterator) Iterator {
	node := it
	if node == nil {
		return nil
	}
	if node.children[0] != nil {
		node = node.children[0]
		for node.children[1] != nil {
			node = node.children[1]
		}
		return node
	}
	childI := 0
	for {
		childI = childIndex(node)
		node = node.parent
		if childI == 1 || node == nil {
			break
		}
	}
	return node
}

// IteratorPayload returns the payload memory for it. Callers may read
// and write payload bytes freely, but must not change key bytes in a way
// that would violate the tree's ordering invariant.
func (t *Tree) IteratorPayload(it Iterator) unsafe.Pointer {
	return it.mem
}

// InOrder walks every key in ascending order, calling visit with each
// key and its payload. The walk stops early if visit returns false.
//
// It is the one primitive every structural check over the whole tree
// (ordering, size, round-trip) needs, and is exported as a first-class
// method rather than left as test-only scaffolding since an ordered
// container's defining property is best verified by walking it in order.
func (t *Tree) InOrder(visit func(key any, payload unsafe.Pointer) bool) {
	for it := t.Lower(); it != nil; it = t.Next(it) {
		if !visit(t.keyGet(it.mem), it.mem) {
			return
		}
	}
}
