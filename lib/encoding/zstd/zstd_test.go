package zstd

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCompressDecompress(t *testing.T) {
	f := func(src []byte, level int) {
		t.Helper()
		compressed := CompressLevel([]byte("prefix"), src, level)
		if !bytes.HasPrefix(compressed, []byte("prefix")) {
			t.Fatalf("CompressLevel must append to dst")
		}
		decompressed, err := Decompress(nil, compressed[len("prefix"):])
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !bytes.Equal(decompressed, src) {
			t.Fatalf("unexpected decompressed data; got %q; want %q", decompressed, src)
		}
	}

	f(nil, 1)
	f([]byte("foobar"), 3)
	f(bytes.Repeat([]byte("1.5\n2.5\n"), 10000), 5)
	f([]byte("level outside range"), -10)
	f([]byte("level outside range"), 100)
}

func TestDecompressInvalid(t *testing.T) {
	if _, err := Decompress(nil, []byte("not a zstd frame")); err == nil {
		t.Fatalf("expecting non-nil error")
	}
}

func TestReader(t *testing.T) {
	src := bytes.Repeat([]byte("0.25\n"), 100000)
	var bb bytes.Buffer
	w, err := zstd.NewWriter(&bb)
	if err != nil {
		t.Fatalf("cannot create writer: %s", err)
	}
	if _, err := w.Write(src); err != nil {
		t.Fatalf("cannot write data: %s", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("cannot close writer: %s", err)
	}

	r, err := NewReader(&bb)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("cannot read data: %s", err)
	}
	if !bytes.Equal(data, src) {
		t.Fatalf("unexpected data read; got %d bytes; want %d bytes", len(data), len(src))
	}
}
