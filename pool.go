// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ucsmap

import (
	"errors"
	"unsafe"

	"code.hybscloud.com/ucsmap/internal"
)

// ErrInvalidConfig is returned by NewPool/Init when a PoolConfig fails
// validation (block size or element size of zero, alignment not a power
// of two).
var ErrInvalidConfig = errors.New("ucsmap: invalid pool config")

// ErrLayoutOverflow is returned by NewPool/Init when the per-block layout
// arithmetic (block size times element size, rounded to alignment) would
// overflow uintptr.
var ErrLayoutOverflow = errors.New("ucsmap: pool layout arithmetic overflow")

// PoolConfig configures a Pool. BlockSize is the number of slots per
// block and must be >= 1. ElementSize is the size in bytes of each slot
// and must be >= 1. ElementAlignment must be a power of two (0 is treated
// as 1, i.e. no alignment requirement beyond natural byte alignment); the
// effective alignment used is the larger of ElementAlignment and the
// Pool's own minimum block alignment.
type PoolConfig struct {
	BlockSize        int
	ElementSize      uintptr
	ElementAlignment uintptr
}

// poolBlock is one contiguous chunk of slot storage plus the bookkeeping
// needed to thread it into the block chain and its own LIFO free stack.
//
// Unlike the original C allocator, the block header (prev/next) and the
// free-pointer stack are ordinary Go fields rather than bytes baked into
// the same aligned_alloc'd region as the slots: Go has no flexible array
// members, and the Go runtime already lays out and keeps these alive
// correctly. Only the raw slot storage (mem) needs manual, overflow-checked
// sizing, since its size and alignment are caller-supplied and otherwise
// opaque to the Go type system.
type poolBlock struct {
	prev, next *poolBlock
	mem        []byte
	freePtrs   []unsafe.Pointer
}

// Pool is a fixed-size-slot slab allocator: a chain of blocks, each
// holding BlockSize slots of ElementSize bytes, handed out and reclaimed
// LIFO within a block. See PoolConfig for construction parameters.
//
// Pool is not safe for concurrent use; see the package doc's Thread
// Safety section.
type Pool struct {
	_ noCopy

	blockSize        int
	elementSize      uintptr
	elementAlignment uintptr
	blockAllocSize   uintptr

	head, tail  *poolBlock
	cursorBlock *poolBlock
	cursorIndex int
}

// PoolObjectSize is an upper bound on the storage required by a Pool
// value, for callers that want to embed one via Init instead of NewPool.
const PoolObjectSize = unsafe.Sizeof(Pool{})

// PoolObjectAlignment is the required alignment of storage passed to
// (*Pool).Init.
const PoolObjectAlignment = unsafe.Alignof(Pool{})

// minBlockAlignment is the smallest alignment ucsmap ever rounds a
// block's backing storage up to, regardless of the caller's requested
// ElementAlignment. Using at least a cache line keeps two Pools embedded
// in adjacent fields of a caller's struct (the create-in-place use case)
// from false-sharing a cache line purely due to block bookkeeping.
var minBlockAlignment = uintptr(internal.CacheLineSize)

// NewPool validates cfg and returns a new, empty Pool (no block is
// allocated yet), or an error if cfg is invalid or its layout arithmetic
// would overflow.
func NewPool(cfg PoolConfig) (*Pool, error) {
	p := new(Pool)
	if err := p.Init(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Init constructs a Pool in place into p, which the caller owns (e.g. a
// zero-value field of the caller's own struct). p must not already be in
// use; re-initializing a Pool that owns blocks leaks them (call
// DestroyInPlace first).
func (p *Pool) Init(cfg PoolConfig) error {
	if cfg.BlockSize < 1 || cfg.ElementSize < 1 {
		return ErrInvalidConfig
	}
	alignment := cfg.ElementAlignment
	if alignment == 0 {
		alignment = 1
	}
	if !isPowerOfTwo(alignment) {
		return ErrInvalidConfig
	}
	if minBlockAlignment > alignment {
		alignment = minBlockAlignment
	}

	elementsSize, ok := checkedMul(uintptr(cfg.BlockSize), cfg.ElementSize)
	if !ok {
		return ErrLayoutOverflow
	}
	allocSize, ok := roundUpTo(elementsSize, alignment)
	if !ok {
		return ErrLayoutOverflow
	}

	*p = Pool{
		blockSize:        cfg.BlockSize,
		elementSize:      cfg.ElementSize,
		elementAlignment: alignment,
		blockAllocSize:   allocSize,
	}
	return nil
}

// appendBlock allocates a new block, links it to the tail of the chain,
// and populates its free-pointer stack with every slot address in
// natural (ascending) order. Returns nil on allocation failure.
//
// A failed make() for an implausibly large block surfaces as a runtime
// out-of-memory panic rather than a nil slice; that panic is recovered
// here and converted to the nil return the Alloc contract requires.
func (p *Pool) appendBlock() *poolBlock {
	mem := p.tryAlignedBytes()
	if mem == nil {
		return nil
	}
	block := &poolBlock{
		prev:     p.tail,
		mem:      mem,
		freePtrs: make([]unsafe.Pointer, p.blockSize),
	}
	base := unsafe.Pointer(unsafe.SliceData(mem))
	for i := range p.blockSize {
		block.freePtrs[i] = unsafe.Add(base, uintptr(i)*p.elementSize)
	}
	if block.prev != nil {
		block.prev.next = block
	}
	return block
}

// tryAlignedBytes allocates the per-block slot storage, converting a
// runtime out-of-memory panic into a nil return.
func (p *Pool) tryAlignedBytes() (mem []byte) {
	defer func() {
		if recover() != nil {
			mem = nil
		}
	}()
	return alignedBytes(int(p.blockAllocSize), p.elementAlignment)
}

// Alloc returns a pointer to a newly reserved slot of ElementSize bytes,
// or nil if a new block was needed and could not be allocated. On failure
// the Pool's invariants are unchanged. Slots lie ElementSize bytes apart
// from a block base aligned to the effective alignment, so a slot is
// aligned to ElementAlignment whenever ElementSize is a multiple of it.
func (p *Pool) Alloc() unsafe.Pointer {
	if p.head == nil {
		block := p.appendBlock()
		if block == nil {
			return nil
		}
		p.head, p.tail, p.cursorBlock = block, block, block
	}

	if p.cursorIndex == p.blockSize {
		if p.cursorBlock.next != nil {
			p.cursorBlock = p.cursorBlock.next
			p.cursorIndex = 0
		} else {
			block := p.appendBlock()
			if block == nil {
				return nil
			}
			p.tail, p.cursorBlock = block, block
			p.cursorIndex = 0
		}
	}

	ptr := p.cursorBlock.freePtrs[p.cursorIndex]
	p.cursorIndex++
	return ptr
}

// Free returns a previously allocated slot to the Pool. Freeing nil is a
// no-op. The caller must not free a slot that was not obtained from this
// Pool via Alloc, or that has already been freed.
func (p *Pool) Free(slot unsafe.Pointer) {
	if slot == nil {
		return
	}
	if p.cursorIndex == 0 {
		p.cursorBlock = p.cursorBlock.prev
		p.cursorIndex = p.blockSize
	}
	p.cursorIndex--
	p.cursorBlock.freePtrs[p.cursorIndex] = slot
}

// FreeAll resets the Pool to the state of having no slots allocated,
// without freeing any block; every previously allocated block is
// retained and its slots are re-enumerated into the free list in natural
// order. Subsequent Allocs reuse that memory before growing the chain.
func (p *Pool) FreeAll() {
	p.cursorBlock = p.head
	p.cursorIndex = 0

	for block := p.head; block != nil; block = block.next {
		base := unsafe.Pointer(unsafe.SliceData(block.mem))
		for i := range p.blockSize {
			block.freePtrs[i] = unsafe.Add(base, uintptr(i)*p.elementSize)
		}
	}
}

// DestroyInPlace releases every block owned by p, leaving p's own
// storage untouched (the caller retains ownership of that storage, as
// documented on Init). p must not be used afterwards except via another
// call to Init.
func (p *Pool) DestroyInPlace() {
	if p == nil {
		return
	}
	p.head, p.tail, p.cursorBlock = nil, nil, nil
	p.cursorIndex = 0
}

// Destroy releases every block owned by p. Unlike the original C API,
// there is no separate free of "the Pool object itself" to perform: p
// was heap-allocated by NewPool and is reclaimed by the garbage collector
// once unreachable. Destroy exists for symmetry with DestroyInPlace and
// to make the intent to stop using p explicit at call sites.
func (p *Pool) Destroy() {
	p.DestroyInPlace()
}
