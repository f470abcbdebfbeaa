// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// checkAfter runs a mutation and asserts the chunk list is still in a
// legal shape immediately afterward. Every test in this file follows
// the same pattern: mutate, then verify, so a broken invariant is
// caught at the operation that broke it rather than surfacing later
// as a mysterious corruption.
func checkAfter(t *testing.T, h *Heap, mutate func()) {
	t.Helper()
	mutate()
	require.NoError(t, h.CheckInvariants())
}

func TestInvariantsHoldAcrossAllocFreeSequence(t *testing.T) {
	h := testHeap(t)
	sizes := []uint64{16, 32, 1, 4095, 200, 8, 4096, 64}
	var live []unsafe.Pointer
	for _, s := range sizes {
		size := s
		checkAfter(t, h, func() {
			p, err := h.Malloc(size)
			require.NoError(t, err)
			live = append(live, p)
		})
	}
	for _, p := range live {
		ptr := p
		checkAfter(t, h, func() { h.Free(ptr) })
	}
}

func TestInvariantsHoldAfterInterleavedFreeOrder(t *testing.T) {
	h := testHeap(t)
	p1, err := h.Malloc(48)
	require.NoError(t, err)
	p2, err := h.Malloc(96)
	require.NoError(t, err)
	p3, err := h.Malloc(16)
	require.NoError(t, err)
	p4, err := h.Malloc(256)
	require.NoError(t, err)

	checkAfter(t, h, func() { h.Free(p3) })
	checkAfter(t, h, func() { h.Free(p1) })
	checkAfter(t, h, func() { h.Free(p4) })
	checkAfter(t, h, func() { h.Free(p2) })

	snap := h.DumpSnapshot()
	require.Equal(t, 2, snap.ChunkCount, "every hole coalesced back into one, plus tail")
}

func TestInvariantsHoldAfterReallocSequence(t *testing.T) {
	h := testHeap(t)
	p, err := h.Malloc(32)
	require.NoError(t, err)
	for _, sz := range []uint64{64, 16, 512, 8, 4096, 32} {
		size := sz
		checkAfter(t, h, func() {
			p, err = h.Realloc(p, size)
			require.NoError(t, err)
		})
	}
}

func TestInvariantsHoldAfterExtensionUnderPressure(t *testing.T) {
	h := smallHeap(t)
	for i := 0; i < 32; i++ {
		checkAfter(t, h, func() {
			_, err := h.Malloc(128)
			require.NoError(t, err)
		})
	}
}

func TestInvariantsHoldAfterMixedAlignedAllocations(t *testing.T) {
	h := testHeap(t)
	aligns := []uint64{16, 32, 64, 4096}
	for _, a := range aligns {
		alignment := a
		checkAfter(t, h, func() {
			p, err := h.AlignedAlloc(alignment, 100)
			require.NoError(t, err)
			require.Zero(t, uintptr(p)%uintptr(alignment))
		})
	}
}
