package zstd

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Reader decompresses zstd stream.
type Reader struct {
	d *zstd.Decoder
}

// NewReader returns a reader, which decompresses the zstd stream from r.
func NewReader(r io.Reader) (*Reader, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("cannot create ZSTD reader: %w", err)
	}
	return &Reader{
		d: d,
	}, nil
}

// Read reads up to len(p) decompressed bytes to p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.d.Read(p)
}

// Close releases resources occupied by r.
//
// r cannot be used after Close.
func (r *Reader) Close() error {
	r.d.Close()
	return nil
}
