// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

//go:build linux

package heap

import (
	"os"

	"golang.org/x/sys/unix"
)

// programBreak implements §4.1's program-break interface: query the
// current break and extend it by whole pages. golang.org/x/sys/unix's
// Brk wrapper discards the resulting address, so the extender issues
// the raw brk(2) syscall itself to learn exactly where the kernel
// placed the new break.

// growBreak moves the break forward by n bytes (n must already be a
// whole-page multiple) and returns the break address before the move:
// the base of the freshly available region. On failure it returns the
// capacity-exceeded error without having moved anything the caller can
// observe.
func growBreak(n uintptr) (uintptr, error) {
	old, err := rawBrk(0)
	if err != nil {
		return 0, err
	}
	want := old + n
	got, err := rawBrk(want)
	if err != nil {
		return 0, err
	}
	if got < want {
		// kernel could not honor the request: out of memory.
		return 0, &Error{Kind: ErrCapacityExceeded, Op: "brk"}
	}
	return old, nil
}

// rawBrk issues brk(2) and returns the resulting break address.
func rawBrk(addr uintptr) (uintptr, error) {
	r1, _, errno := unix.RawSyscall(unix.SYS_BRK, addr, 0, 0)
	if errno != 0 {
		return 0, &Error{Kind: ErrCapacityExceeded, Op: "brk", Err: errno}
	}
	return r1, nil
}

func queryPageSize() int {
	return os.Getpagesize()
}

// rawWrite2 writes msg to stderr via a direct, non-allocating syscall.
func rawWrite2(msg string) {
	var buf [256]byte
	n := copy(buf[:], msg)
	_, _ = unix.Write(2, buf[:n])
}
