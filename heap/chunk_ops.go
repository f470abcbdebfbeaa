// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

import "unsafe"

// chunkAt reinterprets a raw arena address as a chunk header. addr must
// point at a live chunk boundary; callers are the only trusted module
// allowed to fabricate a *chunkHeader from an address like this.
func chunkAt(addr uintptr) *chunkHeader {
	return (*chunkHeader)(unsafe.Pointer(addr))
}

// addr returns the payload address for a chunk: the first byte past
// its header.
func (c *chunkHeader) addr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(c)) + uintptr(headerSize))
}

// payloadToChunk recovers the chunk header owning a payload pointer
// previously handed out by allocUnsafe.
func payloadToChunk(p unsafe.Pointer) *chunkHeader {
	return chunkAt(uintptr(p) - uintptr(headerSize))
}

// payloadSlice views a chunk's payload as a byte slice of length n, for
// zero-fill and relocation-copy. n must not exceed c.size.
func payloadSlice(p unsafe.Pointer, n uint64) []byte {
	return unsafe.Slice((*byte)(p), n)
}
