package deflate64

import (
	"bytes"
	"io"
	"runtime"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/xyproto/randomstring"
)

var benchSuites = []struct {
	name string
	gen  func(n int) []byte
}{
	// English-like text compresses well and exercises the match paths.
	{"Text", func(n int) []byte { return []byte(randomstring.EnglishFrequencyString(n)) }},
	// Random data is mostly literals.
	{"Random", func(n int) []byte { return []byte(randomstring.String(n)) }},
}

var benchSizes = []struct {
	name string
	n    int
}{
	{"1e4", 1e4},
	{"1e5", 1e5},
	{"1e6", 1e6},
}

func doBench(b *testing.B, f func(b *testing.B, plain []byte)) {
	for _, suite := range benchSuites {
		for _, s := range benchSizes {
			b.Run(suite.name+"/"+s.name, func(b *testing.B) {
				f(b, suite.gen(s.n))
			})
		}
	}
}

func BenchmarkInflate(b *testing.B) {
	doBench(b, func(b *testing.B, plain []byte) {
		b.ReportAllocs()
		b.StopTimer()
		b.SetBytes(int64(len(plain)))

		compressed := new(bytes.Buffer)
		w, err := flate.NewWriter(compressed, flate.DefaultCompression)
		if err != nil {
			b.Fatal(err)
		}
		w.Write(plain)
		w.Close()
		comp := compressed.Bytes()
		out := make([]byte, 64<<10)
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			d := NewDecoder()
			if err := d.Init(); err != nil {
				b.Fatal(err)
			}
			in := comp
			for {
				p, err := d.Inflate(in, true, out)
				if err != nil {
					b.Fatal(err)
				}
				in = in[p.InputUsed:]
				if p.Finished {
					break
				}
			}
			d.Close()
		}
	})
}

func BenchmarkReader(b *testing.B) {
	doBench(b, func(b *testing.B, plain []byte) {
		b.ReportAllocs()
		b.StopTimer()
		b.SetBytes(int64(len(plain)))

		compressed := new(bytes.Buffer)
		w, err := flate.NewWriter(compressed, flate.DefaultCompression)
		if err != nil {
			b.Fatal(err)
		}
		w.Write(plain)
		w.Close()
		comp := compressed.Bytes()
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			r := NewReader(bytes.NewReader(comp))
			if _, err := io.Copy(io.Discard, r); err != nil {
				b.Fatal(err)
			}
			r.Close()
		}
	})
}
