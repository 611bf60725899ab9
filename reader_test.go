package deflate64

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/klauspost/compress/flate"
	"github.com/xyproto/randomstring"
)

func TestReaderRoundTrip(t *testing.T) {
	payload := []byte(randomstring.EnglishFrequencyString(300_000))
	comp := deflateBytes(t, payload, flate.DefaultCompression)

	r := NewReader(bytes.NewReader(comp))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("payload mismatch (%d vs %d bytes)", len(out), len(payload))
	}
}

func TestReaderOneByteSource(t *testing.T) {
	payload := []byte("dripped in one byte at a time")
	comp := deflateBytes(t, payload, flate.DefaultCompression)

	r := NewReader(iotest.OneByteReader(bytes.NewReader(comp)))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("got %q", out)
	}
}

func TestReaderSmallDestination(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 2000)
	comp := deflateBytes(t, payload, flate.DefaultCompression)

	r := NewReader(bytes.NewReader(comp))
	defer r.Close()

	var out []byte
	dst := make([]byte, 3)
	for {
		n, err := r.Read(dst)
		out = append(out, dst[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("payload mismatch (%d vs %d bytes)", len(out), len(payload))
	}
}

func TestReaderEmptyStream(t *testing.T) {
	comp := deflateBytes(t, nil, flate.DefaultCompression)
	r := NewReader(bytes.NewReader(comp))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d bytes from empty stream", len(out))
	}
}

func TestReaderTruncatedSource(t *testing.T) {
	payload := []byte("this stream will be cut short before its end marker")
	comp := deflateBytes(t, payload, flate.DefaultCompression)

	r := NewReader(bytes.NewReader(comp[:len(comp)-4]))
	defer r.Close()
	_, err := io.ReadAll(r)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderDefersErrorAfterPartialOutput(t *testing.T) {
	// More than one window of output, then truncation: the flushed window
	// must reach the caller before the error does.
	payload := []byte(randomstring.String(100_000))
	comp := deflateBytes(t, payload, flate.HuffmanOnly)

	r := NewReader(bytes.NewReader(comp[:len(comp)-4]))
	defer r.Close()
	out, err := io.ReadAll(r)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
	if len(out) < windowSize {
		t.Fatalf("only %d bytes surfaced before the error", len(out))
	}
	if !bytes.Equal(out, payload[:len(out)]) {
		t.Fatal("partial output does not match payload prefix")
	}
}

func TestReaderTrailingGarbage(t *testing.T) {
	// Bytes past the stream end belong to the caller, not to us; the decode
	// must still finish cleanly.
	payload := []byte("stream followed by unrelated bytes")
	comp := deflateBytes(t, payload, flate.DefaultCompression)
	comp = append(comp, 0xDE, 0xAD, 0xBE, 0xEF)

	r := NewReader(bytes.NewReader(comp))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("got %q", out)
	}
}

func TestReaderClose(t *testing.T) {
	comp := deflateBytes(t, []byte("x"), flate.DefaultCompression)
	r := NewReader(bytes.NewReader(comp))
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := r.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("read after close: %v", err)
	}
}

func TestReaderZeroLengthRead(t *testing.T) {
	comp := deflateBytes(t, []byte("abc"), flate.DefaultCompression)
	r := NewReader(bytes.NewReader(comp))
	defer r.Close()
	if n, err := r.Read(nil); n != 0 || err != nil {
		t.Fatalf("zero-length read: %d, %v", n, err)
	}
	out, err := io.ReadAll(r)
	if err != nil || string(out) != "abc" {
		t.Fatalf("got %q, %v", out, err)
	}
}
