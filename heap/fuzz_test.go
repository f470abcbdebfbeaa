// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// block is a live allocation the fuzz loop is tracking, along with the
// byte pattern it wrote so a corrupted payload (as opposed to a
// corrupted chunk list) also gets caught.
type block struct {
	p     unsafe.Pointer
	size  uint64
	stamp byte
}

func stampBlock(p unsafe.Pointer, size uint64, stamp byte) {
	s := payloadSlice(p, size)
	for i := range s {
		s[i] = stamp
	}
}

func verifyBlock(t *testing.T, b block) {
	t.Helper()
	for _, got := range payloadSlice(b.p, b.size) {
		require.Equalf(t, b.stamp, got, "payload byte drifted for a %d-byte block", b.size)
	}
}

// TestFuzzAllocFreeRealloc drives a heap through a long randomized
// sequence of malloc, free, and realloc calls, verifying invariants
// and payload contents after every single step. A fixed seed keeps
// failures reproducible.
func TestFuzzAllocFreeRealloc(t *testing.T) {
	h := smallHeap(t)
	rng := rand.New(rand.NewSource(1))

	var live []block
	const iterations = 2000
	const maxBlocks = 64

	for i := 0; i < iterations; i++ {
		switch {
		case len(live) == 0 || (len(live) < maxBlocks && rng.Intn(2) == 0):
			size := uint64(rng.Intn(2048) + 1)
			p, err := h.Malloc(size)
			require.NoError(t, err)
			stamp := byte(rng.Intn(256))
			stampBlock(p, size, stamp)
			live = append(live, block{p: p, size: size, stamp: stamp})

		case rng.Intn(3) == 0:
			idx := rng.Intn(len(live))
			b := live[idx]
			newSize := uint64(rng.Intn(2048) + 1)
			newPtr, err := h.Realloc(b.p, newSize)
			require.NoError(t, err)
			stamp := byte(rng.Intn(256))
			stampBlock(newPtr, newSize, stamp)
			live[idx] = block{p: newPtr, size: newSize, stamp: stamp}

		default:
			idx := rng.Intn(len(live))
			h.Free(live[idx].p)
			live = append(live[:idx], live[idx+1:]...)
		}

		require.NoErrorf(t, h.CheckInvariants(), "invariant broken at iteration %d", i)
		for _, b := range live {
			verifyBlock(t, b)
		}
	}

	for _, b := range live {
		h.Free(b.p)
	}
	require.NoError(t, h.CheckInvariants())
}

// TestFuzzAlignedAllocations exercises the carving path alone against
// a long random sequence of alignments, checking both the alignment
// law and structural invariants after each call.
func TestFuzzAlignedAllocations(t *testing.T) {
	h := smallHeap(t)
	rng := rand.New(rand.NewSource(2))
	alignments := []uint64{16, 32, 64, 128, 256, 512, 1024, 2048, 4096}

	for i := 0; i < 500; i++ {
		a := alignments[rng.Intn(len(alignments))]
		size := uint64(rng.Intn(1024) + 1)
		p, err := h.AlignedAlloc(a, size)
		require.NoError(t, err)
		require.Zerof(t, uintptr(p)%uintptr(a), "misaligned pointer for alignment %d at iteration %d", a, i)
		require.NoErrorf(t, h.CheckInvariants(), "invariant broken at iteration %d", i)
		if rng.Intn(2) == 0 {
			h.Free(p)
		}
	}
}
