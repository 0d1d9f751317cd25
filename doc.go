// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ucsmap provides a generic, in-memory ordered associative
// container backed by a custom pooled (slab) allocator.
//
// The container is a height-balanced binary search tree (AVL discipline)
// over nodes drawn from a Pool: a slab allocator that hands out uniformly
// sized, correctly aligned slots and reuses freed slots in LIFO order,
// growing by a chain of fixed-capacity blocks. Tree and Pool are a matched
// pair — every Tree owns exactly one Pool sized to its node+payload layout,
// and every node a Tree allocates comes from that Pool.
//
// # Two Components
//
// Pool (slab allocator):
//
//	pool, err := ucsmap.NewPool(ucsmap.PoolConfig{
//	    BlockSize:        128,
//	    ElementSize:      unsafe.Sizeof(myElem{}),
//	    ElementAlignment: unsafe.Alignof(myElem{}),
//	})
//	p := pool.Alloc()   // returns unsafe.Pointer, or nil on OOM
//	pool.Free(p)        // LIFO reuse: the next Alloc returns p
//	pool.FreeAll()      // bulk reset; blocks are retained, not freed
//
// Tree (ordered map), built on top of a Pool it owns:
//
//	tree, err := ucsmap.NewTree(ucsmap.TreeConfig{
//	    ElementSize:      unsafe.Sizeof(int(0)),
//	    ElementAlignment: unsafe.Alignof(int(0)),
//	    KeySet: func(k any, mem unsafe.Pointer) { *(*int)(mem) = k.(int) },
//	    KeyGet: func(mem unsafe.Pointer) any { return *(*int)(mem) },
//	    KeyCmp: func(a, b any) int { return a.(int) - b.(int) },
//	})
//	it := tree.Insert(42)
//	it = tree.Find(42)
//	it = tree.LowerBound(40)
//	for it := tree.Lower(); it != nil; it = tree.Next(it) {
//	    _ = tree.IteratorPayload(it)
//	}
//	tree.Remove(42)
//
// # Key Contract
//
// Three caller-supplied functions form the key contract: KeySet writes a
// key into freshly allocated payload memory, KeyGet reads it back, and
// KeyCmp is a total order over keys. Keys are passed and stored as opaque
// `any` values, mirroring the original C library's `void const*` key
// references — ucsmap never interprets key bytes itself.
//
// # In-Place Construction
//
// Both Pool and Tree support in-place construction into caller-owned
// storage (Init methods) alongside owning constructors (New... functions),
// so an embedder can place a Tree or Pool directly inside its own struct
// rather than behind a second heap allocation.
//
// # Thread Safety
//
// Neither Pool nor Tree performs internal synchronization. Both are
// single-producer/single-consumer by contract: a caller using either
// concurrently, or mutating while another goroutine iterates, must
// provide external synchronization (e.g. a sync.RWMutex around the whole
// container). No operation blocks, yields, or performs I/O; all operations
// are synchronous.
//
// # Dependencies
//
// ucsmap has no third-party dependencies; it uses only the standard
// library (unsafe, math/bits) plus its own internal architecture-specific
// cache-line-size table, used to pick a sane default block alignment.
package ucsmap
