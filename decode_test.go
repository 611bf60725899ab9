package deflate64

import (
	"bytes"
	"testing"
)

// bitWriter assembles raw deflate bit streams for the DEFLATE64-only shapes
// no reference encoder will produce: the extended length code and the two
// far distance codes.
type bitWriter struct {
	buf []byte
	cur uint64
	n   uint
}

// writeBits appends an n-bit value LSB first, the way extra bits and header
// fields are stored.
func (w *bitWriter) writeBits(v uint64, n uint) {
	w.cur |= v << w.n
	w.n += n
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur >>= 8
		w.n -= 8
	}
}

// writeCode appends a Huffman code MSB first.
func (w *bitWriter) writeCode(code uint32, n uint) {
	for i := n; i > 0; i-- {
		w.writeBits(uint64(code>>(i-1))&1, 1)
	}
}

func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur, w.n = 0, 0
	}
	return w.buf
}

// fixedLitCode returns the static Huffman code for a literal/length symbol.
func fixedLitCode(sym int) (code uint32, bits uint) {
	switch {
	case sym < 144:
		return uint32(0x30 + sym), 8
	case sym < 256:
		return uint32(0x190 + sym - 144), 9
	case sym < 280:
		return uint32(sym - 256), 7
	default:
		return uint32(0xC0 + sym - 280), 8
	}
}

func (w *bitWriter) fixedBlockHeader(final bool) {
	if final {
		w.writeBits(1, 1)
	} else {
		w.writeBits(0, 1)
	}
	w.writeBits(1, 2) // BTYPE=01, fixed Huffman
}

func (w *bitWriter) literal(b byte) {
	code, n := fixedLitCode(int(b))
	w.writeCode(code, n)
}

func (w *bitWriter) endBlock() {
	code, n := fixedLitCode(256)
	w.writeCode(code, n)
}

// TestExtendedLengthCode decodes a match produced by length code 285, which
// DEFLATE64 redefines from "length 258" to "base 3, 16 extra bits". A single
// seed byte followed by a 65538-byte distance-1 match also forces the window
// to wrap mid-copy.
func TestExtendedLengthCode(t *testing.T) {
	var w bitWriter
	w.fixedBlockHeader(true)
	w.literal('a')
	code, n := fixedLitCode(285)
	w.writeCode(code, n)
	w.writeBits(0xFFFF, 16)  // length = 3 + 65535 = 65538
	w.writeCode(0, 5)        // distance code 0 -> distance 1
	w.endBlock()
	comp := w.bytes()

	out := driveDecode(t, comp, len(comp), 8192)
	want := bytes.Repeat([]byte{'a'}, 1+65538)
	if !bytes.Equal(out, want) {
		t.Fatalf("got %d bytes, want %d of 'a'", len(out), len(want))
	}
}

// TestFarDistanceCode exercises distance code 30, whose base of 32769 lies
// beyond anything DEFLATE can express.
func TestFarDistanceCode(t *testing.T) {
	const history = 40_000
	const dist = 33_000 // code 30: base 32769, 14 extra bits

	data := make([]byte, history)
	for i := range data {
		data[i] = byte(i % 251)
	}

	var w bitWriter
	w.fixedBlockHeader(true)
	for _, b := range data {
		w.literal(b)
	}
	code, n := fixedLitCode(257) // length 3, no extra bits
	w.writeCode(code, n)
	w.writeCode(30, 5)
	w.writeBits(dist-32769, 14)
	w.endBlock()
	comp := w.bytes()

	out := driveDecode(t, comp, striped(len(comp)), 8192)
	want := append(append([]byte(nil), data...), data[history-dist:history-dist+3]...)
	if !bytes.Equal(out, want) {
		t.Fatalf("far-distance decode mismatch (%d vs %d bytes)", len(out), len(want))
	}
}

// TestDistanceBeyondHistory rejects a back-reference into data that was
// never written.
func TestDistanceBeyondHistory(t *testing.T) {
	var w bitWriter
	w.fixedBlockHeader(true)
	w.literal('x')
	code, n := fixedLitCode(257)
	w.writeCode(code, n)
	w.writeCode(4, 5)  // distance code 4: base 5, 1 extra bit
	w.writeBits(0, 1)  // distance 5, but only 1 byte of history exists
	w.endBlock()
	comp := w.bytes()

	d := NewDecoder()
	if err := d.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer d.Close()

	_, err := d.Inflate(comp, true, make([]byte, 64))
	ce, ok := err.(*CorruptError)
	if !ok {
		t.Fatalf("got %v, want CorruptError", err)
	}
	if ce.Reason != "invalid distance too far back" {
		t.Fatalf("reason %q", ce.Reason)
	}
}

// TestMultiBlockStream mixes stored and fixed blocks in one stream.
func TestMultiBlockStream(t *testing.T) {
	var w bitWriter
	// Non-final stored block, byte aligned.
	w.writeBits(0, 1)
	w.writeBits(0, 2)
	if w.n > 0 {
		w.writeBits(0, 8-w.n) // padding to the byte boundary
	}
	stored := []byte("stored block payload")
	n := uint64(len(stored))
	w.writeBits(n, 16)
	w.writeBits(^n&0xFFFF, 16)
	for _, b := range stored {
		w.writeBits(uint64(b), 8)
	}
	// Final fixed block copying 8 bytes from the start of the stored data:
	// distance 20 is code 8 (base 17, 3 extra bits).
	w.fixedBlockHeader(true)
	code, bits := fixedLitCode(262) // length 8
	w.writeCode(code, bits)
	w.writeCode(8, 5)
	w.writeBits(uint64(len(stored))-17, 3)
	w.endBlock()

	comp := w.bytes()
	out := driveDecode(t, comp, 1, 8192)
	want := append(append([]byte(nil), stored...), stored[:8]...)
	if !bytes.Equal(out, want) {
		t.Fatalf("multi-block decode mismatch: %q", out)
	}
}
