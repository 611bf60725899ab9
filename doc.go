/*
Package deflate64 decodes the DEFLATE64 (Enhanced Deflate) compressed data
format, PKWare's extension of DEFLATE with a 64 KiB history window, match
lengths up to 65538 and the two extra distance codes that reach back 64 KiB.
Go's archive/zip cannot read entries stored with this method (method 9); this
package supplies the missing decompressor.

Most callers want one of the two high-level entry points:

	// Install DEFLATE64 support into archive/zip, process-wide.
	deflate64.Register()

	// Or decompress a raw stream directly.
	r := deflate64.NewReader(src)
	defer r.Close()
	io.Copy(dst, r)

The low-level Decoder drives the decode incrementally across caller-supplied
buffers. Each Inflate call binds one input chunk and one output chunk and
reports how far it got, so arbitrarily large streams can be decoded with two
fixed-size buffers:

	d := deflate64.NewDecoder()
	if err := d.Init(); err != nil {
		return err
	}
	defer d.Close()
	for {
		p, err := d.Inflate(in, final, out)
		// consume out[:p.OutputUsed]; refill in from in[p.InputUsed:]
		...
	}

A Decoder is not safe for concurrent use; one call drives it at a time.
Only the decode direction is implemented. DEFLATE is a strict subset of
DEFLATE64, so plain deflate streams decode as well.
*/
package deflate64
