// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Derived from Go's compress/flate. The table builder is unchanged; only the
// alphabet limits differ, since DEFLATE64 keeps DEFLATE's code lengths.

package deflate64

import (
	"math/bits"
	"sync"
)

const (
	maxCodeLen     = 16  // longest Huffman code length + 1
	maxNumLit      = 286 // literal/length alphabet size
	maxNumDist     = 32  // DEFLATE64 uses all 32 distance codes
	numCodes       = 19  // code-length alphabet size
	endBlockMarker = 256
)

const (
	huffmanChunkBits  = 9
	huffmanNumChunks  = 1 << huffmanChunkBits
	huffmanCountMask  = 15
	huffmanValueShift = 4
)

// huffmanDecoder is a two-level lookup table for canonical Huffman codes.
// The first huffmanChunkBits bits index chunks directly; longer codes go
// through links. Each chunk packs symbol<<huffmanValueShift | codeLength.
type huffmanDecoder struct {
	min      int
	chunks   [huffmanNumChunks]uint32
	links    [][]uint32
	linkMask uint32
}

// init builds the decoding tables from a slice of code lengths. It returns
// false if the set of lengths is not a valid complete (or degenerate
// single-code) Huffman code.
func (h *huffmanDecoder) init(lengths []int) bool {
	if h.min != 0 {
		*h = huffmanDecoder{}
	}

	var count [maxCodeLen]int
	var min, max int
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		count[n]++
	}

	if max == 0 {
		return true
	}

	code := 0
	var nextcode [maxCodeLen]int
	for i := min; i <= max; i++ {
		code <<= 1
		nextcode[i] = code
		code += count[i]
	}

	// Over-subscribed or incomplete codes are rejected, except the special
	// case of a single code of length 1, which the format allows.
	if code != 1<<uint(max) && !(code == 1 && max == 1) {
		return false
	}

	h.min = min
	if max > huffmanChunkBits {
		numLinks := 1 << (uint(max) - huffmanChunkBits)
		h.linkMask = uint32(numLinks - 1)

		link := nextcode[huffmanChunkBits+1] >> 1
		h.links = make([][]uint32, huffmanNumChunks-link)
		for j := uint(link); j < huffmanNumChunks; j++ {
			reverse := int(bits.Reverse16(uint16(j)))
			reverse >>= uint(16 - huffmanChunkBits)
			off := j - uint(link)
			h.chunks[reverse] = uint32(off<<huffmanValueShift | (huffmanChunkBits + 1))
			h.links[off] = make([]uint32, numLinks)
		}
	}

	for i, n := range lengths {
		if n == 0 {
			continue
		}
		code := nextcode[n]
		nextcode[n]++
		chunk := uint32(i<<huffmanValueShift | n)
		reverse := int(bits.Reverse16(uint16(code)))
		reverse >>= uint(16 - n)
		if n <= huffmanChunkBits {
			for off := reverse; off < len(h.chunks); off += 1 << uint(n) {
				h.chunks[off] = chunk
			}
		} else {
			j := reverse & (huffmanNumChunks - 1)
			value := h.chunks[j] >> huffmanValueShift
			linktab := h.links[value]
			reverse >>= huffmanChunkBits
			for off := reverse; off < len(linktab); off += 1 << uint(n-huffmanChunkBits) {
				linktab[off] = chunk
			}
		}
	}

	return true
}

var fixedOnce sync.Once
var fixedHuffmanDecoder huffmanDecoder

// fixedHuffmanDecoderInit builds the static literal/length table shared by
// all type-1 blocks. DEFLATE64 uses the same fixed code as DEFLATE.
func fixedHuffmanDecoderInit() {
	fixedOnce.Do(func() {
		var lens [288]int
		for i := 0; i < 144; i++ {
			lens[i] = 8
		}
		for i := 144; i < 256; i++ {
			lens[i] = 9
		}
		for i := 256; i < 280; i++ {
			lens[i] = 7
		}
		for i := 280; i < 288; i++ {
			lens[i] = 8
		}
		fixedHuffmanDecoder.init(lens[:])
	})
}
