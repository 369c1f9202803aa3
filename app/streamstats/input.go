package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/VictoriaMetrics/streamstats/app/streamstats/barpool"
	"github.com/VictoriaMetrics/streamstats/lib/encoding/snappy"
	"github.com/VictoriaMetrics/streamstats/lib/encoding/zstd"
)

const stdinPath = "-"

// expandInputs expands glob patterns into the sorted list of paths.
//
// Patterns without glob meta characters are returned as is, so missing files are reported when opened.
func expandInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if pattern == stdinPath || !hasMeta(pattern) {
			paths = append(paths, pattern)
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("cannot expand glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match glob pattern %q", pattern)
		}
		slices.Sort(matches)
		paths = append(paths, matches...)
	}
	if n := countStdin(paths); n > 1 {
		return nil, fmt.Errorf("stdin (%q) may be passed at most once; got %d times", stdinPath, n)
	}
	return paths, nil
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func countStdin(paths []string) int {
	n := 0
	for _, p := range paths {
		if p == stdinPath {
			n++
		}
	}
	return n
}

// openInput opens the input at path for reading.
//
// Inputs with .zst suffix are decompressed with zstd, while inputs with .sz suffix
// are decompressed with snappy framing format.
func openInput(path string) (io.ReadCloser, error) {
	var f *os.File
	var size int64
	if path == stdinPath {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open input: %w", err)
		}
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cannot stat %q: %w", path, err)
		}
		size = fi.Size()
	}

	r, finish := barpool.NewReader(f, path, size)
	ic := &inputCloser{
		f:      f,
		finish: finish,
	}
	switch {
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			_ = ic.Close()
			return nil, fmt.Errorf("cannot initialize zstd reader for %q: %w", path, err)
		}
		ic.r = zr
		ic.decompressor = zr
	case strings.HasSuffix(path, ".sz"):
		sr := snappy.NewReader(r)
		ic.r = sr
		ic.decompressor = sr
	default:
		ic.r = r
	}
	return ic, nil
}

type inputCloser struct {
	r            io.Reader
	f            *os.File
	decompressor io.Closer
	finish       func()
}

func (ic *inputCloser) Read(p []byte) (int, error) {
	return ic.r.Read(p)
}

func (ic *inputCloser) Close() error {
	ic.finish()
	if ic.decompressor != nil {
		_ = ic.decompressor.Close()
	}
	if ic.f == os.Stdin {
		return nil
	}
	return ic.f.Close()
}
