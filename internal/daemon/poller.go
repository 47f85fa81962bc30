package daemon

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"fetcharr/internal/config"
	"fetcharr/internal/reconcile"

	"go.uber.org/zap"
)

// RunFunc performs one reconciliation pass with the given config. Its error
// is reserved for run-fatal conditions; anything recoverable is logged and
// swallowed inside the pass.
type RunFunc func(cfg *config.Config) (reconcile.Summary, error)

// Poller runs passes back to back with a countdown sleep in between. The
// sleep can be cut short by Wake (config change, POST /run) or Stop.
type Poller struct {
	mu    sync.RWMutex
	cfg   *config.Config
	run   RunFunc
	state *RunState
	log   *zap.Logger
	out   io.Writer

	wakeCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPoller(cfg *config.Config, run RunFunc, log *zap.Logger) *Poller {
	return &Poller{
		cfg:    cfg,
		run:    run,
		state:  NewRunState(),
		log:    log,
		out:    os.Stdout,
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

func (p *Poller) State() *RunState {
	return p.state
}

// Reload swaps the config for subsequent passes and wakes the poller so
// the new config takes effect immediately.
func (p *Poller) Reload(cfg *config.Config) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()

	p.log.Info("config reloaded")
	p.Wake()
}

func (p *Poller) Wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Run loops until stopped. Only a run-fatal error from a pass ends the
// loop with an error; the process exits non-zero on it.
func (p *Poller) Run() error {
	for {
		p.mu.RLock()
		cfg := p.cfg
		p.mu.RUnlock()

		p.state.Begin()
		sum, err := p.run(cfg)
		p.state.Finish(sum, err)

		if err != nil {
			return err
		}

		p.log.Info("run finished",
			zap.Int("torrents", sum.Total),
			zap.Int("mirrored", sum.Mirrored),
			zap.Int("failed", sum.Failed))

		interval := time.Duration(cfg.RTorrent.RecheckTime) * time.Second
		if !p.countdown(interval) {
			return nil
		}
	}
}

// countdown blocks for the recheck interval, redrawing a one-line progress
// bar each second. Returns false when the poller was stopped.
func (p *Poller) countdown(interval time.Duration) bool {
	defer fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 100))

	for remaining := interval; remaining > 0; remaining -= time.Second {
		fmt.Fprintf(p.out, "\rWait %3ds for next check |%s|",
			int(remaining.Seconds()),
			renderBar(interval-remaining, interval))

		select {
		case <-time.After(time.Second):
		case <-p.wakeCh:
			return true
		case <-p.stopCh:
			return false
		}
	}

	return true
}

func renderBar(done, total time.Duration) string {
	const width = 60

	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(done) / float64(total))
	}
	if filled > width {
		filled = width
	}

	return strings.Repeat("█", filled) + strings.Repeat("-", width-filled)
}
