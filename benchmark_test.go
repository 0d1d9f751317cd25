// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ucsmap_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/ucsmap"
)

// Pool benchmarks

func BenchmarkPool_AllocFree(b *testing.B) {
	pool, err := ucsmap.NewPool(ucsmap.PoolConfig{
		BlockSize:        128,
		ElementSize:      unsafe.Sizeof(int64(0)),
		ElementAlignment: unsafe.Alignof(int64(0)),
	})
	if err != nil {
		b.Fatalf("NewPool: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := pool.Alloc()
		pool.Free(p)
	}
}

func BenchmarkPool_GrowingAlloc(b *testing.B) {
	pool, err := ucsmap.NewPool(ucsmap.PoolConfig{
		BlockSize:        128,
		ElementSize:      unsafe.Sizeof(int64(0)),
		ElementAlignment: unsafe.Alignof(int64(0)),
	})
	if err != nil {
		b.Fatalf("NewPool: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Alloc()
	}
}

func BenchmarkPool_FreeAll(b *testing.B) {
	const n = 1024
	pool, err := ucsmap.NewPool(ucsmap.PoolConfig{
		BlockSize:        128,
		ElementSize:      unsafe.Sizeof(int64(0)),
		ElementAlignment: unsafe.Alignof(int64(0)),
	})
	if err != nil {
		b.Fatalf("NewPool: %v", err)
	}
	for i := 0; i < n; i++ {
		pool.Alloc()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.FreeAll()
		for j := 0; j < n; j++ {
			pool.Alloc()
		}
	}
}

// Tree benchmarks

func benchTree(b *testing.B) *ucsmap.Tree {
	b.Helper()
	tree, err := ucsmap.NewTree(ucsmap.TreeConfig{
		ElementSize:      unsafe.Sizeof(int(0)),
		ElementAlignment: unsafe.Alignof(int(0)),
		KeySet: func(key any, mem unsafe.Pointer) {
			*(*int)(mem) = key.(int)
		},
		KeyGet: func(mem unsafe.Pointer) any {
			return *(*int)(mem)
		},
		KeyCmp: func(a, b any) int {
			return a.(int) - b.(int)
		},
	})
	if err != nil {
		b.Fatalf("NewTree: %v", err)
	}
	return tree
}

func BenchmarkTree_Insert(b *testing.B) {
	tree := benchTree(b)
	g := newLCG()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(g.key())
	}
}

func BenchmarkTree_InsertFind(b *testing.B) {
	tree := benchTree(b)
	g := newLCG()
	keys := make([]int, 8192)
	for i := range keys {
		keys[i] = g.key()
		tree.Insert(keys[i])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Find(keys[i%len(keys)])
	}
}

func BenchmarkTree_LowerBound(b *testing.B) {
	tree := benchTree(b)
	g := newLCG()
	for i := 0; i < 8192; i++ {
		tree.Insert(g.key())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.LowerBound(i % 8192)
	}
}

func BenchmarkTree_InOrder(b *testing.B) {
	tree := benchTree(b)
	g := newLCG()
	for i := 0; i < 8192; i++ {
		tree.Insert(g.key())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.InOrder(func(key any, _ unsafe.Pointer) bool { return true })
	}
}

func BenchmarkTree_InsertRemove(b *testing.B) {
	tree := benchTree(b)
	g := newLCG()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := g.key()
		tree.Insert(k)
		tree.Remove(k)
	}
}
