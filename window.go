// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Derived from Go's compress/flate dict_decoder, widened to the 64 KiB
// DEFLATE64 window and rebound to a caller-owned buffer.

package deflate64

// windowSize is the DEFLATE64 history window, exactly 64 KiB. The buffer is
// allocated by the Decoder at Init and owned by it for the handle's lifetime.
const windowSize = 1 << 16

// window is the LZ77 sliding history used during decompression. Decoded data
// accumulates in hist between flushes; readFlush hands out the newly written
// region, and back-references may reach the full buffer once it has wrapped.
type window struct {
	hist []byte

	// Invariant: 0 <= rdPos <= wrPos <= len(hist)
	wrPos int  // current write position
	rdPos int  // hist[:rdPos] has already been flushed
	full  bool // a full window length has been written
}

// bind attaches the window to its backing buffer and resets all state.
func (w *window) bind(buf []byte) {
	*w = window{hist: buf}
}

// histSize reports how much history is valid for back-references.
func (w *window) histSize() int {
	if w.full {
		return len(w.hist)
	}
	return w.wrPos
}

func (w *window) availRead() int {
	return w.wrPos - w.rdPos
}

func (w *window) availWrite() int {
	return len(w.hist) - w.wrPos
}

// writeSlice returns the free region following the write position. The caller
// fills a prefix of it and reports the count through writeMark.
func (w *window) writeSlice() []byte {
	return w.hist[w.wrPos:]
}

func (w *window) writeMark(cnt int) {
	w.wrPos += cnt
}

func (w *window) writeByte(c byte) {
	w.hist[w.wrPos] = c
	w.wrPos++
}

// writeCopy copies a match of the given distance and length, handling
// wraparound and overlapping copies. It writes at most availWrite bytes and
// returns how many were written; the caller retries after a flush.
func (w *window) writeCopy(dist, length int) int {
	dstBase := w.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(w.hist) {
		endPos = len(w.hist)
	}

	if srcPos < 0 {
		srcPos += len(w.hist)
		dstPos += copy(w.hist[dstPos:endPos], w.hist[srcPos:])
		srcPos = 0
	}

	// Overlapping forward copy; each pass at least doubles the run.
	for dstPos < endPos {
		dstPos += copy(w.hist[dstPos:endPos], w.hist[srcPos:dstPos])
	}

	w.wrPos = dstPos
	return dstPos - dstBase
}

// tryWriteCopy is the fast path for matches that neither wrap nor exceed the
// buffer. It returns 0 when writeCopy must handle the slow cases.
func (w *window) tryWriteCopy(dist, length int) int {
	dstPos := w.wrPos
	endPos := dstPos + length
	if dstPos < dist || endPos > len(w.hist) {
		return 0
	}
	dstBase := dstPos
	srcPos := dstPos - dist

	for dstPos < endPos {
		dstPos += copy(w.hist[dstPos:endPos], w.hist[srcPos:dstPos])
	}

	w.wrPos = dstPos
	return dstPos - dstBase
}

// readFlush returns the written-but-unflushed region and marks it flushed.
// When the write position reaches the end of the buffer, both cursors wrap
// and the history becomes eligible for full-window back-references.
func (w *window) readFlush() []byte {
	toRead := w.hist[w.rdPos:w.wrPos]
	w.rdPos = w.wrPos
	if w.wrPos == len(w.hist) {
		w.wrPos, w.rdPos = 0, 0
		w.full = true
	}
	return toRead
}
