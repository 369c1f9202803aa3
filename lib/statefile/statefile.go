// Package statefile frames serialized accumulator state for storing it in files.
//
// The frame layout is:
//
//	magic "SSTS" | version byte | kind byte | compression byte | uvarint payload length | payload | xxhash64 of the uncompressed payload (8 bytes, big endian)
//
// State files are an explicit export of accumulator state. They provide no durability guarantees.
package statefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/VictoriaMetrics/streamstats/lib/encoding"
)

const (
	magic = "SSTS"

	// Version is the current frame format version.
	Version = 1

	zstdCompressionLevel = 3

	// maxPayloadSize limits the size of decoded payloads in order to prevent from excess memory usage on corrupted frames.
	maxPayloadSize = 512 * 1024 * 1024
)

// Kind identifies the type of serialized accumulator.
type Kind byte

// Supported kinds.
const (
	KindMeanVariance Kind = 1
	KindMoments      Kind = 2
	KindMomentsN     Kind = 3
	KindExtrema      Kind = 4
	KindQuantile     Kind = 5
	KindHistogram    Kind = 6
	KindSummary      Kind = 7
)

var kindNames = map[Kind]string{
	KindMeanVariance: "meanvar",
	KindMoments:      "moments",
	KindMomentsN:     "momentsn",
	KindExtrema:      "extrema",
	KindQuantile:     "quantile",
	KindHistogram:    "histogram",
	KindSummary:      "summary",
}

// String returns human-readable name for k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown_kind_%d", byte(k))
}

func (k Kind) isValid() bool {
	_, ok := kindNames[k]
	return ok
}

// Compression is the payload compression inside the frame.
type Compression byte

// Supported compression types.
const (
	CompressionNone   Compression = 0
	CompressionZSTD   Compression = 1
	CompressionSnappy Compression = 2
)

// ParseCompression parses compression from s.
//
// Supported values: none, zstd, snappy.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZSTD, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return 0, fmt.Errorf("unsupported compression %q; supported values: none, zstd, snappy", s)
	}
}

// String returns human-readable name for c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZSTD:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown_compression_%d", byte(c))
	}
}

// Marshal appends the frame for the given payload to dst and returns the result.
func Marshal(dst []byte, kind Kind, payload []byte, c Compression) ([]byte, error) {
	if !kind.isValid() {
		return dst, fmt.Errorf("unsupported kind %d", byte(kind))
	}
	var body []byte
	switch c {
	case CompressionNone:
		body = payload
	case CompressionZSTD:
		body = encoding.CompressZSTDLevel(nil, payload, zstdCompressionLevel)
	case CompressionSnappy:
		body = encoding.CompressSnappy(nil, payload)
	default:
		return dst, fmt.Errorf("unsupported compression %d", byte(c))
	}

	dst = append(dst, magic...)
	dst = append(dst, Version, byte(kind), byte(c))
	dst = binary.AppendUvarint(dst, uint64(len(body)))
	dst = append(dst, body...)
	dst = binary.BigEndian.AppendUint64(dst, xxhash.Sum64(payload))
	return dst, nil
}

// Unmarshal parses the frame from src and returns the kind and the uncompressed payload.
func Unmarshal(src []byte) (Kind, []byte, error) {
	if !bytes.HasPrefix(src, []byte(magic)) {
		return 0, nil, fmt.Errorf("missing %q magic prefix", magic)
	}
	src = src[len(magic):]
	if len(src) < 3 {
		return 0, nil, fmt.Errorf("too short frame header; got %d bytes; want at least 3 bytes", len(src))
	}
	version, kind, c := src[0], Kind(src[1]), Compression(src[2])
	src = src[3:]
	if version != Version {
		return 0, nil, fmt.Errorf("unsupported frame version %d; want %d", version, Version)
	}
	if !kind.isValid() {
		return 0, nil, fmt.Errorf("unsupported kind %d", byte(kind))
	}

	bodyLen, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, nil, fmt.Errorf("cannot read payload length")
	}
	src = src[n:]
	if bodyLen > maxPayloadSize {
		return 0, nil, fmt.Errorf("too big payload length %d; mustn't exceed %d", bodyLen, maxPayloadSize)
	}
	if uint64(len(src)) != bodyLen+8 {
		return 0, nil, fmt.Errorf("unexpected frame size; got %d bytes after the header; want %d bytes", len(src), bodyLen+8)
	}
	body := src[:bodyLen]
	checksum := binary.BigEndian.Uint64(src[bodyLen:])

	var payload []byte
	var err error
	switch c {
	case CompressionNone:
		payload = body
	case CompressionZSTD:
		payload, err = encoding.DecompressZSTD(nil, body)
	case CompressionSnappy:
		payload, err = encoding.DecompressSnappy(nil, body)
	default:
		return 0, nil, fmt.Errorf("unsupported compression %d", byte(c))
	}
	if err != nil {
		return 0, nil, fmt.Errorf("cannot decompress %s payload: %w", c, err)
	}
	if h := xxhash.Sum64(payload); h != checksum {
		return 0, nil, fmt.Errorf("checksum mismatch; got %016x; want %016x", h, checksum)
	}
	return kind, payload, nil
}

// Marshaler is implemented by accumulators, which can be stored in state files.
type Marshaler interface {
	MarshalProtobuf(dst []byte) []byte
}

// Unmarshaler is implemented by accumulators, which can be restored from state files.
type Unmarshaler interface {
	UnmarshalProtobuf(src []byte) error
}

// WriteFile stores m of the given kind at path.
//
// The file is written to a temporary file at first and then renamed to path,
// so readers never observe partially written files. The temporary file is removed on failure.
func WriteFile(path string, kind Kind, m Marshaler, c Compression) error {
	data, err := Marshal(nil, kind, m.MarshalProtobuf(nil), c)
	if err != nil {
		return fmt.Errorf("cannot marshal %s state: %w", kind, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory for %q: %w", path, err)
	}

	// Unique name per call, since concurrent writers may target the same path.
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("cannot create temporary file for %q: %w", path, err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot write state to %q: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot close %q: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot set permissions on %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cannot rename %q to %q: %w", tmpPath, path, err)
	}
	return nil
}

// ReadFile restores u of the given kind from the state file at path.
func ReadFile(path string, kind Kind, u Unmarshaler) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read state file: %w", err)
	}
	k, payload, err := Unmarshal(data)
	if err != nil {
		return fmt.Errorf("cannot parse state file %q: %w", path, err)
	}
	if k != kind {
		return fmt.Errorf("unexpected kind of state file %q; got %s; want %s", path, k, kind)
	}
	if err := u.UnmarshalProtobuf(payload); err != nil {
		return fmt.Errorf("cannot unmarshal %s state from %q: %w", kind, path, err)
	}
	return nil
}
