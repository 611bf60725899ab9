package deflate64

import (
	"errors"
	"io"
)

// inputChunkSize is the buffer used when reading compressed data from the
// source. It is the same "good" size io.Copy uses: large enough to avoid
// excessive round-trips, small enough not to waste memory.
const inputChunkSize = 32 << 10

// Reader decompresses a raw DEFLATE64 stream read from an underlying source.
type Reader struct {
	src      io.Reader
	dec      *Decoder
	buf      []byte
	pending  []byte // compressed bytes not yet consumed by the decoder
	srcEOF   bool
	finished bool
	closed   bool
	err      error // deferred until the next Read
}

// NewReader returns an io.ReadCloser that decompresses DEFLATE64 data read
// from src. The caller must call Close to release the decoder. If the
// decoder cannot be set up, the error is reported by the first Read.
func NewReader(src io.Reader) io.ReadCloser {
	d := NewDecoder()
	if err := d.Init(); err != nil {
		return &errorReadCloser{err: err}
	}
	return &Reader{
		src: src,
		dec: d,
		buf: make([]byte, inputChunkSize),
	}
}

// Read implements io.Reader. When the compressed stream has been fully
// decoded, Read returns 0, io.EOF. An error encountered after some bytes
// were already produced is deferred to the next call, so the caller sees the
// partial output first.
func (r *Reader) Read(dst []byte) (int, error) {
	switch {
	case r.closed:
		return 0, ErrClosed
	case r.err != nil:
		err := r.err
		r.err = nil
		return 0, err
	case r.finished:
		return 0, io.EOF
	case len(dst) == 0:
		return 0, nil
	}

	produced := 0
	for {
		if len(r.pending) == 0 && !r.srcEOF {
			if err := r.fill(); err != nil {
				return r.deferErr(produced, err)
			}
		}

		p, err := r.dec.Inflate(r.pending, r.srcEOF, dst[produced:])
		r.pending = r.pending[p.InputUsed:]
		produced += p.OutputUsed
		if err != nil {
			if err == ErrTruncated {
				err = io.ErrUnexpectedEOF
			}
			return r.deferErr(produced, err)
		}

		switch {
		case p.Finished:
			r.finished = true
			if produced == 0 {
				return 0, io.EOF
			}
			return produced, nil
		case p.NeedsOutput:
			return produced, nil
		case p.NeedsInput:
			// Refilling may block; don't block while holding output.
			if produced > 0 {
				return produced, nil
			}
		default:
			return r.deferErr(produced, errors.New("deflate64: decoder made no progress"))
		}
	}
}

// fill tops the input buffer off from the source. A Read of zero bytes with
// no error is reported as io.ErrNoProgress rather than spinning.
func (r *Reader) fill() error {
	n, err := r.src.Read(r.buf)
	r.pending = r.buf[:n]
	if err == io.EOF {
		r.srcEOF = true
		return nil
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return io.ErrNoProgress
	}
	return nil
}

// deferErr returns produced bytes without an error when some output was
// already written, saving the error for the next call.
func (r *Reader) deferErr(produced int, err error) (int, error) {
	if produced > 0 {
		r.err = err
		return produced, nil
	}
	return 0, err
}

// Close releases the decoder. It does not close the underlying source.
// Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.dec.Close()
	return nil
}

// errorReadCloser reports a stored error on the first Read and io.EOF after
// that. It stands in for a Reader whose decoder could not be initialized.
type errorReadCloser struct {
	err error
}

func (r *errorReadCloser) Read([]byte) (int, error) {
	if r.err == nil {
		return 0, io.EOF
	}
	err := r.err
	r.err = nil
	return 0, err
}

func (r *errorReadCloser) Close() error {
	return nil
}
