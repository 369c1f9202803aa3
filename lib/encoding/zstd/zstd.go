// Package zstd provides zstd compression on top of github.com/klauspost/compress/zstd.
package zstd

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/VictoriaMetrics/streamstats/lib/logger"
)

var (
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		d, err := zstd.NewReader(nil)
		if err != nil {
			logger.Panicf("BUG: failed to create ZSTD decoder: %s", err)
		}
		decoder = d
	})
	return decoder
}

// Decompress appends decompressed src to dst and returns the result.
func Decompress(dst, src []byte) ([]byte, error) {
	return getDecoder().DecodeAll(src, dst)
}

// CompressLevel appends compressed src to dst and returns the result.
//
// The given compressionLevel is used for the compression. It is clamped to the range supported by zstd.
func CompressLevel(dst, src []byte, compressionLevel int) []byte {
	e := getEncoder(compressionLevel)
	return e.EncodeAll(src, dst)
}

const (
	minLevel = 1
	maxLevel = 22
)

var encoders [maxLevel + 1]struct {
	once sync.Once
	e    *zstd.Encoder
}

func getEncoder(compressionLevel int) *zstd.Encoder {
	compressionLevel = max(minLevel, min(compressionLevel, maxLevel))
	enc := &encoders[compressionLevel]
	enc.once.Do(func() {
		level := zstd.EncoderLevelFromZstd(compressionLevel)
		e, err := zstd.NewWriter(nil, zstd.WithEncoderCRC(false), zstd.WithEncoderLevel(level))
		if err != nil {
			logger.Panicf("BUG: failed to create ZSTD encoder for level %d: %s", compressionLevel, err)
		}
		enc.e = e
	})
	return enc.e
}
