package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"
)

const defaultTermWidth = 80

// Terminal is a single-line, carriage-return-updated progress sink
// suitable for an interactive CLI. Updates are rate-limited so a tight
// inner loop reporting per-chunk progress doesn't spend more time
// formatting output than transferring bytes (spec §6: "advisory, lossy,
// non-blocking").
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	fd       int
	limiter  *rate.Limiter
	lastLine int
}

// NewTerminal returns a Sink writing to w, throttled to at most
// updatesPerSecond redraws. Pass 0 to use a sensible default (10/s).
func NewTerminal(w io.Writer, updatesPerSecond float64) *Terminal {
	if updatesPerSecond <= 0 {
		updatesPerSecond = 10
	}
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Terminal{
		out:     w,
		fd:      fd,
		limiter: rate.NewLimiter(rate.Limit(updatesPerSecond), 1),
	}
}

// Emit renders one progress line, dropping the update if it arrives
// faster than the configured rate limit allows.
func (t *Terminal) Emit(e Event) {
	if !t.limiter.Allow() {
		return
	}

	width := defaultTermWidth
	if t.fd >= 0 {
		if w, _, err := term.GetSize(t.fd); err == nil && w > 0 {
			width = w
		}
	}

	line := formatLine(e, width)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\r%s", padTo(line, t.lastLine))
	t.lastLine = len(line)
}

func formatLine(e Event, width int) string {
	pct := 0.0
	if e.TotalBytes > 0 {
		pct = float64(e.BytesDone) / float64(e.TotalBytes) * 100
	}
	line := fmt.Sprintf("[%d/%d files] %.1f%% %s/s eta %s %s",
		e.FilesDone, e.TotalFiles, pct, humanRate(e.Throughput), e.ETA.Round(time.Second), e.CurrentFile)
	if len(line) > width {
		line = line[:width]
	}
	return line
}

// padTo right-pads line with spaces so it fully overwrites a longer
// previous line left behind by the carriage return.
func padTo(line string, prevLen int) string {
	if len(line) >= prevLen {
		return line
	}
	return line + strings.Repeat(" ", prevLen-len(line))
}

func humanRate(bytesPerSec float64) string {
	const unit = 1024.0
	if bytesPerSec < unit {
		return fmt.Sprintf("%.0fB", bytesPerSec)
	}
	div, exp := unit, 0
	for n := bytesPerSec / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	return fmt.Sprintf("%.1f%s", bytesPerSec/div, suffixes[exp])
}
