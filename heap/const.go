// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

import "unsafe"

const NAME = "qalloc"

// RoundTo is the alignment quantum every chunk size and payload address
// is rounded to. Must be a power of two.
const (
	RoundTo     = 16
	roundToMask = ^(uint64(RoundTo) - 1)
)

// MinChunkSize is the smallest payload a split fragment may carry;
// crop refuses to leave a remainder smaller than this behind.
const MinChunkSize = RoundTo

// InitialPages is the number of pages acquired on first use.
const InitialPages = 256

// ExtendMinPages is the minimum number of pages an extension adds,
// even when the triggering request is smaller.
const ExtendMinPages = 16

// headerSize is sizeof(chunkHeader), always a multiple of RoundTo on
// every platform this package targets (32 bytes on amd64/arm64: three
// 8-byte words plus the padded bool).
const headerSize = uint64(unsafe.Sizeof(chunkHeader{}))

func roundUp(s uint64) uint64 {
	return (s + (RoundTo - 1)) & roundToMask
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}
