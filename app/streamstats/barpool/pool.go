// Package barpool provides access to the global
// pool of progress bars, so they could be rendered
// altogether.
package barpool

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
)

var (
	pool     = pb.NewPool()
	disabled bool

	startOnce sync.Once
	startErr  error
	started   bool
)

// Disable disables progress bars if v is true.
//
// Must be called before the first call to Start.
func Disable(v bool) { disabled = v }

// IsDisabled returns true if progress bars aren't rendered.
//
// Progress bars are rendered only to terminals.
func IsDisabled() bool {
	return disabled || !isatty.IsTerminal(os.Stderr.Fd())
}

// Start starts the global pool.
func Start() error {
	if IsDisabled() {
		return nil
	}
	startOnce.Do(func() {
		startErr = pool.Start()
		started = startErr == nil
	})
	return startErr
}

// Stop stops the global pool
func Stop() {
	if started {
		started = false
		_ = pool.Stop()
	}
}

const bytesTpl = `{{ string . "prefix" }} {{ counters . }} {{ bar . "[" "█" "█" "░" "]" }} {{ percent . }} {{ speed . }}`

// NewReader returns r, which reports progress of reading total bytes
// under the given name to the global pool.
//
// The returned finish func must be called when reading is complete.
// r is returned as is if progress bars are disabled.
func NewReader(r io.Reader, name string, total int64) (io.Reader, func()) {
	if IsDisabled() {
		return r, func() {}
	}
	bar := pb.New64(total).SetTemplate(pb.ProgressBarTemplate(bytesTpl))
	bar.Set(pb.Bytes, true)
	bar.Set("prefix", name)
	pool.Add(bar)
	return bar.NewProxyReader(r), func() { bar.Finish() }
}
