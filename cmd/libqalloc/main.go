// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command libqalloc builds a C shared library (-buildmode=c-shared)
// exporting the eight POSIX allocator entry points under a qalloc_
// prefix rather than their bare libc names: cgo's own C-to-Go bridge
// needs a working real malloc/free underneath it, so exporting symbols
// literally named malloc/free from a cgo binary would have this
// library eat its own runtime's allocations. A thin C or linker-script
// shim renaming qalloc_malloc to malloc at link time is what turns
// this into an LD_PRELOAD-able drop-in, the way the original C
// implementation was used directly.
package main

// #include <stddef.h>
import "C"

import (
	"errors"
	"unsafe"

	"github.com/zlatistiv/qalloc/heap"
	"github.com/zlatistiv/qalloc/malloc"
)

//export qalloc_malloc
func qalloc_malloc(size C.size_t) unsafe.Pointer {
	return malloc.Malloc(uint64(size))
}

//export qalloc_free
func qalloc_free(ptr unsafe.Pointer) {
	malloc.Free(ptr)
}

//export qalloc_calloc
func qalloc_calloc(nmemb, size C.size_t) unsafe.Pointer {
	return malloc.Calloc(uint64(nmemb), uint64(size))
}

//export qalloc_realloc
func qalloc_realloc(ptr unsafe.Pointer, size C.size_t) unsafe.Pointer {
	return malloc.Realloc(ptr, uint64(size))
}

//export qalloc_reallocarray
func qalloc_reallocarray(ptr unsafe.Pointer, nmemb, size C.size_t) unsafe.Pointer {
	return malloc.ReallocArray(ptr, uint64(nmemb), uint64(size))
}

//export qalloc_malloc_usable_size
func qalloc_malloc_usable_size(ptr unsafe.Pointer) C.size_t {
	return C.size_t(malloc.MallocUsableSize(ptr))
}

//export qalloc_aligned_alloc
func qalloc_aligned_alloc(alignment, size C.size_t) unsafe.Pointer {
	return malloc.AlignedAlloc(uint64(alignment), uint64(size))
}

//export qalloc_posix_memalign
func qalloc_posix_memalign(memptr *unsafe.Pointer, alignment, size C.size_t) C.int {
	p, err := malloc.PosixMemalign(uint64(alignment), uint64(size))
	if err != nil {
		var herr *heap.Error
		if errors.As(err, &herr) && herr.Kind == heap.ErrCapacityExceeded {
			return C.int(12) // ENOMEM
		}
		return C.int(22) // EINVAL
	}
	*memptr = p
	return 0
}

// main is required by the c-shared build mode but is never invoked;
// every entry point above is reached through the exported C symbols.
func main() {}
