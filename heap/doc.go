// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package heap implements a single-arena, boundary-tagged heap manager
// suitable for use as the core of a drop-in replacement for the POSIX
// process allocator. It owns one contiguous region grown only by
// program-break extension (Linux brk(2)), searches it with a linear
// best-fit scan, and coalesces eagerly on release.
//
// It targets linux/amd64 and linux/arm64: the program-break interface
// in brk.go issues the raw brk(2) syscall and has no portable
// equivalent on non-Linux kernels.
package heap
