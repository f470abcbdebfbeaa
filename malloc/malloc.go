// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package malloc exposes the process-wide POSIX allocator entry points
// (malloc, free, calloc, realloc, reallocarray, malloc_usable_size,
// aligned_alloc, posix_memalign) as ordinary Go functions over a single
// package-level heap.Heap, the way a preloaded C shared library would
// expose them to every caller in the process.
package malloc

import (
	"sync"
	"unsafe"

	"github.com/zlatistiv/qalloc/heap"
)

var (
	instanceOnce sync.Once
	instance     *heap.Heap

	// LastError mirrors the portable-caller convention of setting a
	// sticky error indicator (errno's role) alongside a nil return,
	// since a nil pointer alone cannot distinguish "out of memory" from
	// "zero bytes requested and this platform chooses to return nil for
	// that" (it doesn't; see heap's n==0 handling, but callers targeting
	// portability should still check LastError rather than assume).
	lastErrMu sync.Mutex
	lastErr   error
)

func heapInstance() *heap.Heap {
	instanceOnce.Do(func() {
		instance = heap.New(heap.DefaultConfig(), 0)
	})
	return instance
}

// SetOptions reconfigures the package-level heap before first use.
// Calling it after the heap has already been lazily created has no
// effect at all: neither the config nor the flags are changed.
func SetOptions(cfg heap.Config, opts heap.Options) {
	instanceOnce.Do(func() {
		instance = heap.New(cfg, opts)
	})
}

func setLastError(err error) {
	lastErrMu.Lock()
	lastErr = err
	lastErrMu.Unlock()
}

// LastError returns the error from the most recently failed call made
// through this package, or nil if none has failed yet or the last call
// succeeded.
func LastError() error {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	return lastErr
}

// Malloc allocates size bytes, 16-byte aligned. Returns nil and sets
// LastError on failure.
func Malloc(size uint64) unsafe.Pointer {
	p, err := heapInstance().Malloc(size)
	setLastError(err)
	if err != nil {
		return nil
	}
	return p
}

// Free releases a pointer previously returned by any allocation
// function in this package. Freeing nil is a no-op.
func Free(p unsafe.Pointer) {
	heapInstance().Free(p)
}

// Calloc allocates nmemb*size bytes, zero-filled. Returns nil and sets
// LastError on overflow or allocation failure.
func Calloc(nmemb, size uint64) unsafe.Pointer {
	p, err := heapInstance().Calloc(nmemb, size)
	setLastError(err)
	if err != nil {
		return nil
	}
	return p
}

// Realloc resizes a previously allocated pointer. Passing nil behaves
// like Malloc; passing size 0 behaves like Free and returns nil.
func Realloc(p unsafe.Pointer, size uint64) unsafe.Pointer {
	np, err := heapInstance().Realloc(p, size)
	setLastError(err)
	if err != nil {
		return nil
	}
	return np
}

// ReallocArray is Realloc for nmemb*size bytes, with overflow checking
// on the multiplication.
func ReallocArray(p unsafe.Pointer, nmemb, size uint64) unsafe.Pointer {
	np, err := heapInstance().ReallocArray(p, nmemb, size)
	setLastError(err)
	if err != nil {
		return nil
	}
	return np
}

// MallocUsableSize returns the actual usable payload capacity of p's
// chunk, which may exceed the size originally requested.
func MallocUsableSize(p unsafe.Pointer) uint64 {
	return heapInstance().UsableSize(p)
}

// AlignedAlloc allocates size bytes at the given alignment. alignment
// must be a power of two no greater than the platform page size;
// larger values are a fatal caller error, matching aligned_alloc's
// undefined-behavior contract for unsupported alignments.
func AlignedAlloc(alignment, size uint64) unsafe.Pointer {
	p, err := heapInstance().AlignedAlloc(alignment, size)
	setLastError(err)
	if err != nil {
		return nil
	}
	return p
}

// PosixMemalign allocates size bytes at the given alignment and
// returns the pointer directly along with an error, mirroring
// posix_memalign's split between a status code and an out-parameter
// instead of overloading a nil return the way AlignedAlloc does.
// alignment must be a power of two multiple of unsafe.Sizeof(uintptr(0));
// any other value is reported as heap.ErrInvalidArgument, since
// posix_memalign's contract calls for a returned error code. A valid
// power of two above the page size is passed on to AlignedAlloc and
// panics there just as it does for AlignedAlloc.
func PosixMemalign(alignment, size uint64) (unsafe.Pointer, error) {
	if alignment == 0 || alignment%uint64(unsafe.Sizeof(uintptr(0))) != 0 {
		err := &heap.Error{Kind: heap.ErrInvalidArgument, Op: "posix_memalign"}
		setLastError(err)
		return nil, err
	}
	p, err := heapInstance().AlignedAlloc(alignment, size)
	setLastError(err)
	return p, err
}
