// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zlatistiv/qalloc/heap"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <snapshot.json>",
		Short: "Print fragmentation and usage statistics for a heap snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args[0])
		},
	}
}

// snapshotStats is the derived report computed from a raw heap.Snapshot.
type snapshotStats struct {
	ArenaSize     uint64  `json:"arena_size"`
	UsedBytes     uint64  `json:"used_bytes"`
	MaxUsedBytes  uint64  `json:"max_used_bytes"`
	FreeBytes     uint64  `json:"free_bytes"`
	ChunkCount    int     `json:"chunk_count"`
	FreeChunks    int     `json:"free_chunks"`
	LiveChunks    int     `json:"live_chunks"`
	LargestFree   uint64  `json:"largest_free_chunk"`
	FragmentRatio float64 `json:"fragmentation_ratio"` // 1 - largest-free/total-free; 0 means no fragmentation
	OverheadBytes uint64  `json:"header_overhead_bytes"`
}

func computeStats(snap heap.Snapshot, headerSize uint64) snapshotStats {
	s := snapshotStats{
		ArenaSize:    snap.ArenaSize,
		UsedBytes:    snap.UsedBytes,
		MaxUsedBytes: snap.MaxUsed,
		ChunkCount:   snap.ChunkCount,
	}
	for i, c := range snap.Chunks {
		s.OverheadBytes += headerSize
		if c.Free {
			s.FreeChunks++
			s.FreeBytes += c.Size
			if c.Size > s.LargestFree {
				s.LargestFree = c.Size
			}
		} else if i != len(snap.Chunks)-1 {
			// the last chunk is the zero-size tail sentinel, not a live
			// allocation
			s.LiveChunks++
		}
	}
	if s.FreeBytes > 0 {
		s.FragmentRatio = 1 - float64(s.LargestFree)/float64(s.FreeBytes)
	}
	return s
}

func runStats(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("qallocctl: %w", err)
	}
	defer f.Close()

	var snap heap.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("qallocctl: decoding snapshot: %w", err)
	}

	// The snapshot doesn't carry header size directly; qallocctl assumes
	// the tail chunk (always present, always zero-sized) marks the end
	// of the last real chunk, so overhead is simply chunk_count headers
	// worth of bytes computed from arena size minus payload bytes.
	var payload uint64
	for _, c := range snap.Chunks {
		payload += c.Size
	}
	var headerSize uint64
	if snap.ChunkCount > 0 && snap.ArenaSize > payload {
		headerSize = (snap.ArenaSize - payload) / uint64(snap.ChunkCount)
	}

	stats := computeStats(snap, headerSize)

	if jsonOut {
		return printJSON(stats)
	}

	fmt.Printf("arena size:        %d bytes\n", stats.ArenaSize)
	fmt.Printf("used:              %d bytes (max %d)\n", stats.UsedBytes, stats.MaxUsedBytes)
	fmt.Printf("free:              %d bytes across %d chunks\n", stats.FreeBytes, stats.FreeChunks)
	fmt.Printf("live chunks:       %d\n", stats.LiveChunks)
	fmt.Printf("largest free hole: %d bytes\n", stats.LargestFree)
	fmt.Printf("fragmentation:     %.2f%%\n", stats.FragmentRatio*100)
	fmt.Printf("header overhead:   ~%d bytes/chunk\n", headerSize)
	return nil
}
