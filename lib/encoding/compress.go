package encoding

import (
	"github.com/VictoriaMetrics/metrics"

	"github.com/VictoriaMetrics/streamstats/lib/encoding/snappy"
	"github.com/VictoriaMetrics/streamstats/lib/encoding/zstd"
)

// CompressZSTDLevel appends zstd-compressed src to dst and returns the result.
//
// The given compressLevel is used for the compression.
func CompressZSTDLevel(dst, src []byte, compressLevel int) []byte {
	zstdOriginalBytes.Add(len(src))
	dstLen := len(dst)
	dst = zstd.CompressLevel(dst, src, compressLevel)
	zstdCompressedBytes.Add(len(dst) - dstLen)
	return dst
}

// DecompressZSTD appends zstd-decompressed src to dst and returns the result.
func DecompressZSTD(dst, src []byte) ([]byte, error) {
	return zstd.Decompress(dst, src)
}

// CompressSnappy appends snappy-compressed src to dst and returns the result.
func CompressSnappy(dst, src []byte) []byte {
	snappyOriginalBytes.Add(len(src))
	dstLen := len(dst)
	dst = snappy.Compress(dst, src)
	snappyCompressedBytes.Add(len(dst) - dstLen)
	return dst
}

// DecompressSnappy appends snappy-decompressed src to dst and returns the result.
func DecompressSnappy(dst, src []byte) ([]byte, error) {
	return snappy.Decompress(dst, src)
}

var (
	zstdOriginalBytes     = metrics.NewCounter(`streamstats_block_original_bytes_total{codec="zstd"}`)
	zstdCompressedBytes   = metrics.NewCounter(`streamstats_block_compressed_bytes_total{codec="zstd"}`)
	snappyOriginalBytes   = metrics.NewCounter(`streamstats_block_original_bytes_total{codec="snappy"}`)
	snappyCompressedBytes = metrics.NewCounter(`streamstats_block_compressed_bytes_total{codec="snappy"}`)
)
