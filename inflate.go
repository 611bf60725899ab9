package deflate64

import "errors"

// Progress reports the outcome of one Inflate call: how much of each buffer
// was used and which flow-control condition, if any, stopped the engine.
// At most one of NeedsInput, NeedsOutput and Finished is set.
type Progress struct {
	InputUsed   int
	OutputUsed  int
	NeedsInput  bool
	NeedsOutput bool
	Finished    bool
}

// Decoder is a handle on one in-progress DEFLATE64 decode. It owns the
// engine state and the 64 KiB history window for its whole initialized
// lifetime. A Decoder is driven by one caller at a time; it has no internal
// locking.
//
// Lifecycle: NewDecoder, Init once, any number of Inflate calls, Close.
// After a fatal decode error the handle should be closed, not reused.
type Decoder struct {
	state       *inflator
	window      []byte
	call        callContext
	initialized bool
	closed      bool
}

// NewDecoder allocates an empty handle. No window or engine state exists
// until Init.
func NewDecoder() *Decoder {
	return new(Decoder)
}

// Init allocates the 64 KiB window and binds the engine to it. It must be
// called exactly once per handle; calling it on an already-initialized or
// closed handle returns ErrInvalidState. If the engine rejects the binding
// the window is released again and the handle stays uninitialized.
func (d *Decoder) Init() error {
	if d == nil || d.initialized || d.closed {
		return ErrInvalidState
	}
	d.window = make([]byte, windowSize)
	s := new(inflator)
	if st := s.bind(d.window); st != statusOK {
		d.window = nil
		return errors.New("deflate64: " + errorMessage(d, st))
	}
	d.state = s
	d.initialized = true
	return nil
}

// Close releases the engine state and the window. It is safe on a nil
// handle, on a handle whose Init failed, and when called more than once.
// A closed handle cannot be driven or re-initialized.
func (d *Decoder) Close() {
	if d == nil {
		return
	}
	d.state = nil
	d.window = nil
	d.call = callContext{}
	d.initialized = false
	d.closed = true
}

// Inflate runs the engine once against the supplied buffers. input holds the
// next compressed bytes; inputFinal asserts that no input will ever follow
// them; output receives decompressed bytes.
//
// The returned Progress classifies the stop:
//
//   - Finished: the stream reached its logical end.
//   - NeedsOutput: output filled up; drain it and call again with the input
//     continued from InputUsed. Takes priority over NeedsInput when both
//     sides ran out on the same step.
//   - NeedsInput: all input was consumed mid-stream. If inputFinal was set
//     this is a truncated stream and Inflate returns ErrTruncated instead.
//
// Unconsumed input (input[InputUsed:]) must be passed again on the next
// call; the handle does not buffer it.
func (d *Decoder) Inflate(input []byte, inputFinal bool, output []byte) (Progress, error) {
	var p Progress
	if d == nil || !d.initialized {
		return p, ErrInvalidState
	}

	c := &d.call
	c.reset(input, output)
	st := d.state.run(c)
	unused := d.state.drainInput()
	p.InputUsed = c.inOff - unused
	p.OutputUsed = c.outOff

	switch st {
	case statusStreamEnd:
		p.Finished = true
		return p, nil
	case statusBufError:
		// Overflow wins: when input runs out on the same step that fills
		// the output, the caller must drain output first, not fetch more
		// input.
		if c.overflow {
			p.NeedsOutput = true
			return p, nil
		}
		if p.InputUsed == len(input) {
			p.NeedsInput = true
			if inputFinal {
				return p, ErrTruncated
			}
			return p, nil
		}
		return p, errors.New("deflate64: " + errorMessage(d, st))
	case statusDataError:
		if err := d.state.err; err != nil {
			return p, err
		}
		return p, errors.New("deflate64: " + errorMessage(d, st))
	default:
		return p, errors.New("deflate64: " + errorMessage(d, st))
	}
}

// callContext binds one Inflate call's buffers and implements the engine's
// pull and push hooks over them. It is reset at the start of every call;
// nothing here outlives the call.
type callContext struct {
	in       []byte
	inOff    int
	out      []byte
	outOff   int
	overflow bool
}

func (c *callContext) reset(in, out []byte) {
	*c = callContext{in: in, out: out}
}

// Pull hands the engine the next contiguous slice of remaining input, at
// most max bytes, and advances the cursor past it. An empty return means the
// call's input is exhausted.
func (c *callContext) Pull(max int) []byte {
	if c.inOff >= len(c.in) {
		return nil
	}
	n := len(c.in) - c.inOff
	if n > max {
		n = max
	}
	p := c.in[c.inOff : c.inOff+n]
	c.inOff += n
	return p
}

// Push copies as much of p as fits into the remaining output space. A short
// count stops the engine; the overflow flag stays set for the rest of the
// call so the driver can tell a full buffer from exhausted input.
func (c *callContext) Push(p []byte) int {
	n := copy(c.out[c.outOff:], p)
	c.outOff += n
	if n < len(p) {
		c.overflow = true
	}
	return n
}
