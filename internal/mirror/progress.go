package mirror

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter receives streaming progress for one file at a time. Transfers
// are sequential, so implementations need no locking.
type Reporter interface {
	Start(name string, total int64)
	Add(n int)
	Finish()
}

// NopReporter discards progress. Used by tests and the daemon's quiet mode.
type NopReporter struct{}

func (NopReporter) Start(string, int64) {}
func (NopReporter) Add(int)             {}
func (NopReporter) Finish()             {}

// ConsoleReporter rewrites a single status line per block: transferred
// bytes, percent of the declared size, and a derived ETA.
type ConsoleReporter struct {
	w     io.Writer
	total int64
	done  int64
	start time.Time
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Start(name string, total int64) {
	r.total = total
	r.done = 0
	r.start = time.Now()
}

func (r *ConsoleReporter) Add(n int) {
	r.done += int64(n)

	percent := 100.0
	if r.total > 0 {
		percent = float64(r.done) / float64(r.total) * 100
	}

	fmt.Fprintf(r.w, "\rDownloaded %s/%s (%.2f%%) ETA: %s%s",
		humanize.Bytes(uint64(r.done)),
		humanize.Bytes(uint64(r.total)),
		percent,
		etaString(time.Since(r.start), r.done, r.total),
		strings.Repeat(" ", 10))
}

func (r *ConsoleReporter) Finish() {
	fmt.Fprintf(r.w, "\r%s\r", strings.Repeat(" ", 79))
}

// etaString derives the remaining time from throughput so far. Before the
// first byte there is no rate to extrapolate from.
func etaString(elapsed time.Duration, done, total int64) string {
	if done == 0 {
		return "unknown"
	}

	eta := time.Duration(float64(elapsed) * float64(total) / float64(done))
	eta -= elapsed
	if eta < 0 {
		eta = 0
	}

	secs := int64(eta.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// abbreviate keeps long release names readable in log and status output.
func abbreviate(name string) string {
	if len(name) > 60 {
		return name[:20] + "..." + name[len(name)-40:]
	}

	return name
}
