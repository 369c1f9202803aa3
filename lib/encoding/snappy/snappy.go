// Package snappy wraps github.com/golang/snappy block and stream formats.
package snappy

import (
	"io"

	"github.com/golang/snappy"
)

// Compress appends snappy-compressed src to dst and returns the result.
func Compress(dst, src []byte) []byte {
	n := snappy.MaxEncodedLen(len(src))
	dstLen := len(dst)
	dst = append(dst, make([]byte, n)...)
	encoded := snappy.Encode(dst[dstLen:], src)
	return dst[:dstLen+len(encoded)]
}

// Decompress appends snappy-decompressed src to dst and returns the result.
func Decompress(dst, src []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return dst, err
	}
	dstLen := len(dst)
	dst = append(dst, make([]byte, n)...)
	decoded, err := snappy.Decode(dst[dstLen:], src)
	if err != nil {
		return dst[:dstLen], err
	}
	return dst[:dstLen+len(decoded)], nil
}

// NewReader returns a reader, which decompresses snappy framed stream from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		d: snappy.NewReader(r),
	}
}

// Reader decompresses snappy framed stream.
type Reader struct {
	d *snappy.Reader
}

// Read reads up to len(p) decompressed bytes to p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.d.Read(p)
}

// Close implements io.Closer interface.
func (r *Reader) Close() error {
	r.d.Reset(nil)
	return nil
}
