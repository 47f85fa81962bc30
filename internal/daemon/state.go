package daemon

import (
	"sync"
	"time"

	"fetcharr/internal/reconcile"
)

// RunState tracks the poller across runs for the status endpoint.
type RunState struct {
	mu        sync.RWMutex
	startedAt time.Time
	lastRun   *time.Time
	running   bool
	runs      int
	total     int
	mirrored  int
	failed    int
	lastError string
}

type Snapshot struct {
	StartedAt time.Time  `json:"started_at"`
	LastRun   *time.Time `json:"last_run"`
	Running   bool       `json:"running"`
	Runs      int        `json:"runs"`
	Torrents  int        `json:"torrents"`
	Mirrored  int        `json:"mirrored"`
	Failed    int        `json:"failed"`
	LastError string     `json:"last_error,omitempty"`
}

func NewRunState() *RunState {
	return &RunState{startedAt: time.Now()}
}

func (s *RunState) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *RunState) Finish(sum reconcile.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.lastRun = &now
	s.running = false
	s.runs++
	s.total = sum.Total
	s.mirrored = sum.Mirrored
	s.failed = sum.Failed
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

func (s *RunState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		StartedAt: s.startedAt,
		LastRun:   s.lastRun,
		Running:   s.running,
		Runs:      s.runs,
		Torrents:  s.total,
		Mirrored:  s.mirrored,
		Failed:    s.failed,
		LastError: s.lastError,
	}
}
