// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ucsmap

import (
	"math/bits"
	"unsafe"
)

// noCopy is a sentinel used to prevent copying of structures that own
// live, address-sensitive memory. It implements sync.Locker purely so
// `go vet`'s copylocks check flags an accidental value copy.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// checkedMul returns a*b and true, or (0, false) if the product would
// overflow uintptr. Mirrors the add_/pad_ overflow-detection macros used
// throughout the original allocator's layout arithmetic.
func checkedMul(a, b uintptr) (uintptr, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > uint64(^uintptr(0)) {
		return 0, false
	}
	return uintptr(lo), true
}

// checkedAdd returns a+b and true, or (0, false) if the sum would overflow
// uintptr.
func checkedAdd(a, b uintptr) (uintptr, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// roundUpTo rounds size up to the next multiple of alignment (a power of
// two), returning false if doing so would overflow uintptr.
func roundUpTo(size, alignment uintptr) (uintptr, bool) {
	if alignment == 0 {
		return size, true
	}
	d := size % alignment
	if d == 0 {
		return size, true
	}
	return checkedAdd(size, alignment-d)
}

// isPowerOfTwo reports whether x is a power of two. Zero is not a power
// of two.
func isPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// alignedBytes returns a byte slice of exactly size bytes whose first
// byte sits at an address that is a multiple of align.
//
// The returned slice is sliced out of a larger backing allocation; callers
// must not assume len(result) == cap(result) and must keep the returned
// slice itself alive (not just a pointer derived from it) for as long as
// its memory is referenced via unsafe.Pointer, so the backing array is not
// collected.
func alignedBytes(size int, align uintptr) []byte {
	if align <= 1 {
		return make([]byte, size)
	}
	p := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}
