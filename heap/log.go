// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

// logging functions

import (
	"fmt"

	"github.com/intuitivelabs/slog"
)

// internal constants
const (
	pDBG   = "DBG: " + NAME + ": "
	pWARN  = "WARNING: " + NAME + ": "
	pERR   = "ERROR: " + NAME + ": "
	pBUG   = "BUG: " + NAME + ": "
	pPANIC = NAME + ": "
)

// Log is the generic log.
var Log slog.Log = slog.New(slog.LDBG, slog.LbackTraceS|slog.LlocInfoS,
	slog.LStdErr)

// DBGon reports whether logging at LDBG level is enabled.
func DBGon() bool {
	return Log.L(slog.LDBG)
}

// DBG is a shorthand for logging a trace/debug message.
func DBG(f string, a ...interface{}) {
	Log.LLog(slog.LDBG, 1, pDBG, f, a...)
}

// WARNon reports whether logging at LWARN level is enabled.
func WARNon() bool {
	return Log.WARNon()
}

// WARN is a shorthand for logging a warning message.
func WARN(f string, a ...interface{}) {
	Log.LLog(slog.LWARN, 1, pWARN, f, a...)
}

// ERRon reports whether logging at LERR level is enabled.
func ERRon() bool {
	return Log.ERRon()
}

// ERR is a shorthand for logging an error message.
func ERR(f string, a ...interface{}) {
	Log.LLog(slog.LERR, 1, pERR, f, a...)
}

// BUG is a shorthand for logging a bug message.
func BUG(f string, a ...interface{}) {
	Log.LLog(slog.LBUG, 1, pBUG, f, a...)
}

// PANIC is a shorthand for log + panic, used for the unsupported
// alignment case and for freeing or reallocating an already freed
// pointer. Internal invariant breaches go through fatalInvariant.
func PANIC(f string, a ...interface{}) {
	s := fmt.Sprintf(pPANIC+f, a...)
	Log.LLog(slog.LBUG, 1, "", "%s", s)
	panic(s)
}

// fatalWriteRaw reports a fatal invariant breach through a direct write
// syscall with a fixed buffer instead of the formatted logger. The
// mutex guarding the heap is non-recursive and this allocator may be
// installed as the process allocator, so any code reachable from a
// fatal path must not itself allocate; Log.LLog goes through fmt and
// slog's own buffers and must not be trusted from inside a corrupted
// heap. Callers that can still safely reach the logger should prefer
// PANIC; this exists only for that reentrancy hazard.
func fatalWriteRaw(msg string) {
	rawWrite2(msg)
}

// fatalInvariant reports a corrupted-heap invariant breach and aborts
// the process. It goes through fatalWriteRaw rather than the formatted
// logger, per the reentrancy hazard documented on fatalWriteRaw.
func fatalInvariant(msg string) {
	fatalWriteRaw(pBUG + msg + "\n")
	panic(pBUG + msg)
}
