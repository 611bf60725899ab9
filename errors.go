package deflate64

import (
	"errors"
	"strconv"
)

// status is the engine-level outcome taxonomy, modelled on zlib's return
// codes. Only the driver interprets statusBufError: it means either side ran
// dry, and the per-call overflow flag says which.
type status int

const (
	statusOK status = iota
	statusStreamEnd
	statusBufError   // insufficient input or output; disambiguated by the driver
	statusDataError  // corrupt stream
	statusMemError   // allocation or window binding failure
	statusStateError // misused handle
)

// Package errors. The flow-control conditions (needs input, needs output) are
// not errors; they are reported through Progress flags.
var (
	// ErrInvalidState is returned when a Decoder is driven before Init,
	// after Close, or through a nil handle.
	ErrInvalidState = errors.New("deflate64: invalid stream state")
	// ErrTruncated is returned when the input is declared final but the
	// stream's logical end was never reached.
	ErrTruncated = errors.New("deflate64: unexpected end of stream")
	// ErrClosed is returned by Reader.Read after Close.
	ErrClosed = errors.New("deflate64: read after close")
)

// CorruptError reports invalid compressed data. Offset is the number of
// compressed bytes consumed when the corruption was detected; Reason is the
// engine diagnostic.
type CorruptError struct {
	Offset int64
	Reason string
}

func (e *CorruptError) Error() string {
	return "deflate64: " + e.Reason + " at offset " + strconv.FormatInt(e.Offset, 10)
}

// statusMessage is the fixed fallback text per status category.
func statusMessage(st status) string {
	switch st {
	case statusOK, statusStreamEnd:
		return "ok"
	case statusDataError:
		return "invalid deflate64 stream"
	case statusMemError:
		return "insufficient memory"
	case statusStateError:
		return "invalid stream state"
	case statusBufError:
		return "insufficient input or output buffer"
	default:
		return "unknown deflate64 error"
	}
}

// errorMessage resolves a status against a handle: the engine diagnostic wins
// when the handle carries one, otherwise the fixed category text. It accepts
// a nil handle and never returns an empty string.
func errorMessage(d *Decoder, st status) string {
	if d != nil && d.state != nil && d.state.msg != "" {
		return d.state.msg
	}
	return statusMessage(st)
}
