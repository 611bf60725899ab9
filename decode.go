// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Derived from Go's compress/flate inflate machinery, reworked for DEFLATE64
// (64 KiB window, extended length code 285, distance codes 30 and 31) and for
// suspend/resume on both sides: input arrives through a pull hook that may
// run dry mid-step, output leaves through a push hook that may stop short.
// Every step records enough state to continue exactly where it left off, in
// the style of zlib's explicit-mode inflaters.

package deflate64

import (
	"errors"
	"math/bits"
)

// maxTransfer caps how much input a single pull may hand over.
const maxTransfer = 1 << 30

// errNeedInput is the internal suspension signal: the pull hook had nothing.
// It is never surfaced; run translates it into statusBufError.
var errNeedInput = errors.New("deflate64: need more input")

// ioHooks is how the engine talks to the outside world. Pull returns the next
// chunk of compressed input, up to max bytes, or an empty slice when none is
// available right now. Push delivers decompressed bytes and returns how many
// were accepted; a short count tells the engine to suspend.
type ioHooks interface {
	Pull(max int) []byte
	Push(p []byte) int
}

// Resume points within huffmanBlock. Set at each label entry so a suspension
// anywhere inside re-enters the right phase with its partial state intact.
const (
	stateInit = iota
	stateLenExtra
	stateDist
	stateDistExtra
	stateDict
)

// Resume points within the dynamic table header.
const (
	phaseTableHeader = iota
	phaseCodeLengths
	phaseSymbolLengths
)

// inflator is the DEFLATE64 decode engine. It is private to the Decoder
// handle, which binds it to the window buffer at Init and drives it through
// run; it never touches caller buffers except via the hooks.
type inflator struct {
	hooks ioHooks
	in    []byte // unconsumed remainder of the current pull

	// Input bits, in the low end of b.
	b  uint32
	nb uint

	// Total compressed bytes consumed, for diagnostics.
	roffset int64

	// Huffman decoders for literal/length, distance.
	h1, h2 huffmanDecoder

	// Code lengths being assembled for a dynamic block.
	lens     [maxNumLit + maxNumDist]int
	codebits [numCodes]int

	// Dynamic header progress (survives input suspension).
	nlit, ndist int
	hufPhase    int
	hufIdx      int
	hufRep      int // pending repeat symbol 16..18, 0 when none

	// Output history.
	win     window
	toFlush []byte // pending slice of win awaiting the push hook

	// Current step and its partial state.
	step      func(*inflator)
	stepState int
	final     bool
	done      bool
	err       error
	hl, hd    *huffmanDecoder
	copyLen   int
	copyDist  int
	extraN    uint // extra bits still owed to copyLen or copyDist

	// Engine diagnostic for the error resolver, set on data errors.
	msg string
}

// bind attaches the engine to its history window and readies it for the
// first block. The buffer must be exactly windowSize bytes.
func (f *inflator) bind(buf []byte) status {
	if len(buf) != windowSize {
		return statusStateError
	}
	fixedHuffmanDecoderInit()
	f.win.bind(buf)
	f.step = (*inflator).nextBlock
	return statusOK
}

// run executes one engine run: it loops decode steps and hook transfers until
// the stream ends, a hook stalls, or the data turns out to be corrupt. All
// partial state survives in f, so a later run continues the same stream.
func (f *inflator) run(h ioHooks) status {
	f.hooks = h
	for {
		for len(f.toFlush) > 0 {
			n := f.hooks.Push(f.toFlush)
			f.toFlush = f.toFlush[n:]
			if len(f.toFlush) > 0 {
				return statusBufError
			}
		}
		if f.done {
			return statusStreamEnd
		}
		if f.err != nil {
			return statusDataError
		}
		f.step(f)
		if f.err == errNeedInput {
			f.err = nil
			return statusBufError
		}
	}
}

// drainInput reports how many pulled bytes the engine did not consume and
// drops its reference to the caller's buffer. The driver subtracts the count
// from the pull total; the caller re-supplies those bytes on the next call.
// Bits already in the accumulator count as consumed.
func (f *inflator) drainInput() int {
	n := len(f.in)
	f.in = nil
	f.hooks = nil
	return n
}

func (f *inflator) corrupt(reason string) error {
	f.msg = reason
	return &CorruptError{Offset: f.roffset, Reason: reason}
}

func (f *inflator) fill() error {
	f.in = f.hooks.Pull(maxTransfer)
	if len(f.in) == 0 {
		return errNeedInput
	}
	return nil
}

func (f *inflator) moreBits() error {
	if len(f.in) == 0 {
		if err := f.fill(); err != nil {
			return err
		}
	}
	f.b |= uint32(f.in[0]) << (f.nb & 31)
	f.in = f.in[1:]
	f.nb += 8
	f.roffset++
	return nil
}

// huffSym decodes one symbol through h. On input exhaustion it saves the bit
// accumulator (bytes loaded so far are kept) and reports errNeedInput; the
// resumed call re-decodes from the preserved state.
func (f *inflator) huffSym(h *huffmanDecoder) (int, error) {
	// A code is at most maxCodeLen-1 bits, so nb stays well inside the
	// 32-bit accumulator and at most 7 bits are left over after a symbol.
	n := uint(h.min)
	nb, b := f.nb, f.b
	for {
		for nb < n {
			if len(f.in) == 0 {
				if err := f.fill(); err != nil {
					f.b, f.nb = b, nb
					return 0, err
				}
			}
			b |= uint32(f.in[0]) << (nb & 31)
			f.in = f.in[1:]
			nb += 8
			f.roffset++
		}
		chunk := h.chunks[b&(huffmanNumChunks-1)]
		n = uint(chunk & huffmanCountMask)
		if n > huffmanChunkBits {
			chunk = h.links[chunk>>huffmanValueShift][(b>>huffmanChunkBits)&h.linkMask]
			n = uint(chunk & huffmanCountMask)
		}
		if n <= nb {
			if n == 0 {
				f.b, f.nb = b, nb
				return 0, f.corrupt("invalid huffman code")
			}
			f.b = b >> (n & 31)
			f.nb = nb - n
			return int(chunk >> huffmanValueShift), nil
		}
	}
}

// nextBlock reads a block header: one final-block bit, two type bits.
func (f *inflator) nextBlock() {
	for f.nb < 1+2 {
		if f.err = f.moreBits(); f.err != nil {
			return
		}
	}
	f.final = f.b&1 == 1
	f.b >>= 1
	typ := f.b & 3
	f.b >>= 2
	f.nb -= 1 + 2
	f.stepState = stateInit
	switch typ {
	case 0:
		// Stored blocks are byte aligned; fewer than 8 bits remain here,
		// so clearing the accumulator discards only the padding.
		f.b, f.nb = 0, 0
		f.step = (*inflator).dataBlock
		f.dataBlock()
	case 1:
		f.hl = &fixedHuffmanDecoder
		f.hd = nil
		f.step = (*inflator).huffmanBlock
		f.huffmanBlock()
	case 2:
		f.hufPhase = phaseTableHeader
		f.step = (*inflator).dynamicHeader
		f.dynamicHeader()
	default:
		f.err = f.corrupt("invalid block type")
	}
}

// dynamicHeader assembles the Huffman tables for a type-2 block, then hands
// off to huffmanBlock. readTable keeps its own resume phases.
func (f *inflator) dynamicHeader() {
	if err := f.readTable(); err != nil {
		f.err = err
		return
	}
	f.hl = &f.h1
	f.hd = &f.h2
	f.stepState = stateInit
	f.step = (*inflator).huffmanBlock
	f.huffmanBlock()
}

func (f *inflator) readTable() error {
	if f.hufPhase == phaseTableHeader {
		for f.nb < 5+5+4 {
			if err := f.moreBits(); err != nil {
				return err
			}
		}
		f.nlit = int(f.b&0x1F) + 257
		if f.nlit > maxNumLit {
			return f.corrupt("too many length or distance symbols")
		}
		f.b >>= 5
		// HDIST is 5 bits, so ndist is at most 32; DEFLATE64 allows all of
		// them, unlike DEFLATE which reserves the last two.
		f.ndist = int(f.b&0x1F) + 1
		f.b >>= 5
		f.hufRep = int(f.b&0xF) + 4 // nclen, carried into the next phase
		f.b >>= 4
		f.nb -= 5 + 5 + 4
		f.hufIdx = 0
		f.hufPhase = phaseCodeLengths
	}

	if f.hufPhase == phaseCodeLengths {
		nclen := f.hufRep
		for f.hufIdx < nclen {
			for f.nb < 3 {
				if err := f.moreBits(); err != nil {
					return err
				}
			}
			f.codebits[codeOrder[f.hufIdx]] = int(f.b & 0x7)
			f.b >>= 3
			f.nb -= 3
			f.hufIdx++
		}
		for i := nclen; i < len(codeOrder); i++ {
			f.codebits[codeOrder[i]] = 0
		}
		if !f.h1.init(f.codebits[0:]) {
			return f.corrupt("invalid code lengths set")
		}
		f.hufIdx = 0
		f.hufRep = 0
		f.hufPhase = phaseSymbolLengths
	}

	n := f.nlit + f.ndist
	for f.hufIdx < n {
		if f.hufRep == 0 {
			x, err := f.huffSym(&f.h1)
			if err != nil {
				return err
			}
			if x < 16 {
				f.lens[f.hufIdx] = x
				f.hufIdx++
				continue
			}
			f.hufRep = x
		}
		var rep int
		var nb uint
		var b int
		switch f.hufRep {
		case 16:
			rep = 3
			nb = 2
			if f.hufIdx == 0 {
				return f.corrupt("invalid bit length repeat")
			}
			b = f.lens[f.hufIdx-1]
		case 17:
			rep = 3
			nb = 3
		case 18:
			rep = 11
			nb = 7
		}
		for f.nb < nb {
			if err := f.moreBits(); err != nil {
				return err
			}
		}
		rep += int(f.b & uint32(1<<nb-1))
		f.b >>= nb
		f.nb -= nb
		f.hufRep = 0
		if f.hufIdx+rep > n {
			return f.corrupt("invalid bit length repeat")
		}
		for j := 0; j < rep; j++ {
			f.lens[f.hufIdx] = b
			f.hufIdx++
		}
	}

	if !f.h1.init(f.lens[0:f.nlit]) {
		return f.corrupt("invalid literal/lengths set")
	}
	if !f.h2.init(f.lens[f.nlit : f.nlit+f.ndist]) {
		return f.corrupt("invalid distances set")
	}

	// The decoder must be able to load enough bits to read the end-of-block
	// marker in one go; same workaround as the stdlib inflater.
	if f.h1.min < f.lens[endBlockMarker] {
		f.h1.min = f.lens[endBlockMarker]
	}

	f.hufPhase = phaseTableHeader
	return nil
}

var codeOrder = [...]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// huffmanBlock decodes the body of a fixed or dynamic block. Each labelled
// region records itself in stepState before doing anything that can suspend.
func (f *inflator) huffmanBlock() {
	switch f.stepState {
	case stateInit:
		goto readLiteral
	case stateLenExtra:
		goto lengthExtra
	case stateDist:
		goto readDistance
	case stateDistExtra:
		goto distanceExtra
	case stateDict:
		goto copyHistory
	}

readLiteral:
	f.stepState = stateInit
	{
		v, err := f.huffSym(f.hl)
		if err != nil {
			f.err = err
			return
		}
		var n uint // number of extra bits
		var length int
		switch {
		case v < 256:
			f.win.writeByte(byte(v))
			if f.win.availWrite() == 0 {
				f.toFlush = f.win.readFlush()
				return
			}
			goto readLiteral
		case v == 256:
			f.finishBlock()
			return
		// otherwise, reference to older data
		case v < 265:
			length = v - (257 - 3)
			n = 0
		case v < 269:
			length = v*2 - (265*2 - 11)
			n = 1
		case v < 273:
			length = v*4 - (269*4 - 19)
			n = 2
		case v < 277:
			length = v*8 - (273*8 - 35)
			n = 3
		case v < 281:
			length = v*16 - (277*16 - 67)
			n = 4
		case v < 285:
			length = v*32 - (281*32 - 131)
			n = 5
		case v < maxNumLit:
			// DEFLATE64: code 285 restarts at base 3 with 16 extra bits,
			// for matches up to 65538 bytes.
			length = 3
			n = 16
		default:
			f.err = f.corrupt("invalid literal/length code")
			return
		}
		f.copyLen, f.extraN = length, n
	}

lengthExtra:
	f.stepState = stateLenExtra
	if f.extraN > 0 {
		n := f.extraN
		for f.nb < n {
			if err := f.moreBits(); err != nil {
				f.err = err
				return
			}
		}
		f.copyLen += int(f.b & uint32(1<<n-1))
		f.b >>= n
		f.nb -= n
		f.extraN = 0
	}

readDistance:
	f.stepState = stateDist
	{
		var dist int
		if f.hd == nil {
			for f.nb < 5 {
				if err := f.moreBits(); err != nil {
					f.err = err
					return
				}
			}
			dist = int(bits.Reverse8(uint8(f.b & 0x1F << 3)))
			f.b >>= 5
			f.nb -= 5
		} else {
			var err error
			if dist, err = f.huffSym(f.hd); err != nil {
				f.err = err
				return
			}
		}

		switch {
		case dist < 4:
			f.copyDist = dist + 1
			f.extraN = 0
		case dist < maxNumDist:
			nb := uint(dist-2) >> 1
			extra := (dist & 1) << nb
			f.copyDist = 1<<(nb+1) + 1 + extra
			f.extraN = nb
		default:
			f.err = f.corrupt("invalid distance code")
			return
		}
	}

distanceExtra:
	f.stepState = stateDistExtra
	if f.extraN > 0 {
		n := f.extraN
		for f.nb < n {
			if err := f.moreBits(); err != nil {
				f.err = err
				return
			}
		}
		f.copyDist += int(f.b & uint32(1<<n-1))
		f.b >>= n
		f.nb -= n
		f.extraN = 0
	}
	if f.copyDist > f.win.histSize() {
		f.err = f.corrupt("invalid distance too far back")
		return
	}

copyHistory:
	f.stepState = stateDict
	{
		cnt := f.win.tryWriteCopy(f.copyDist, f.copyLen)
		if cnt == 0 {
			cnt = f.win.writeCopy(f.copyDist, f.copyLen)
		}
		f.copyLen -= cnt

		if f.win.availWrite() == 0 || f.copyLen > 0 {
			f.toFlush = f.win.readFlush()
			return
		}
		goto readLiteral
	}
}

// dataBlock reads the 4-byte stored block header. nextBlock already dropped
// the alignment padding, so the accumulator stays byte aligned here even
// across an input suspension mid-header.
func (f *inflator) dataBlock() {
	for f.nb < 32 {
		if f.err = f.moreBits(); f.err != nil {
			return
		}
	}
	n := int(f.b & 0xFFFF)
	nn := int(f.b >> 16)
	f.b, f.nb = 0, 0
	if nn != n^0xFFFF {
		f.err = f.corrupt("invalid stored block lengths")
		return
	}

	if n == 0 {
		// Empty stored block: a flush marker.
		f.toFlush = f.win.readFlush()
		f.finishBlock()
		return
	}

	f.copyLen = n
	f.step = (*inflator).copyData
	f.copyData()
}

// copyData moves stored-block bytes straight from input to the window.
func (f *inflator) copyData() {
	for f.copyLen > 0 {
		if len(f.in) == 0 {
			if err := f.fill(); err != nil {
				f.err = err
				return
			}
		}
		buf := f.win.writeSlice()
		if len(buf) > f.copyLen {
			buf = buf[:f.copyLen]
		}
		cnt := copy(buf, f.in)
		f.in = f.in[cnt:]
		f.roffset += int64(cnt)
		f.win.writeMark(cnt)
		f.copyLen -= cnt
		if f.win.availWrite() == 0 {
			f.toFlush = f.win.readFlush()
			return
		}
	}
	f.finishBlock()
}

func (f *inflator) finishBlock() {
	if f.final {
		if f.win.availRead() > 0 {
			f.toFlush = f.win.readFlush()
		}
		f.done = true
	}
	f.stepState = stateInit
	f.step = (*inflator).nextBlock
}
