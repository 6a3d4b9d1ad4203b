/*
scheduler.go - Automated charge backfill scheduler

PURPOSE:
  Periodically brings every tenant's charges current so balances stay
  fresh even when no collaborator has read them for a while. The engine
  itself never self-schedules; this loop is a collaborator convenience
  living at the edge, and each tick is the same idempotent catch-up a
  read endpoint would run.

DESIGN:
  - Background goroutine on a time.Ticker, plus one immediate run on
    start so a restart doesn't wait a whole interval
  - Disabled by default: Interval <= 0 means Start is a no-op
  - Stop is idempotent and waits for an in-flight run to finish

USAGE:
  s := api.NewBackfillScheduler(engine, time.Hour, logger)
  s.Start()
  // ... on shutdown
  s.Stop()

SEE ALSO:
  - handlers.go: BackfillAll, the manual equivalent
  - ledger/backfill.go: the idempotent catch-up each tick runs
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// BackfillScheduler runs the roster-wide charge catch-up on a timer.
type BackfillScheduler struct {
	Engine   *ledger.Engine
	Interval time.Duration
	Log      *slog.Logger

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewBackfillScheduler creates a scheduler. An interval of zero or less
// leaves it disabled.
func NewBackfillScheduler(engine *ledger.Engine, interval time.Duration, log *slog.Logger) *BackfillScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &BackfillScheduler{
		Engine:   engine,
		Interval: interval,
		Log:      log.With("component", "scheduler"),
	}
}

// Start begins the scheduler. A disabled scheduler logs and returns.
func (s *BackfillScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Log.Info("backfill scheduler disabled")
		return
	}
	if s.running {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.run()

	s.Log.Info("backfill scheduler started", "interval", s.Interval)
}

// Stop stops the scheduler and waits for an in-flight run. Safe to call
// twice or on a scheduler that never started.
func (s *BackfillScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.running = false

	s.Log.Info("backfill scheduler stopped")
}

func (s *BackfillScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.runOnce()

	for {
		select {
		case <-s.ticker.C:
			s.runOnce()
		case <-s.stop:
			return
		}
	}
}

// RunNow triggers an immediate catch-up (for tests and admin tooling).
func (s *BackfillScheduler) RunNow() {
	s.runOnce()
}

func (s *BackfillScheduler) runOnce() {
	ctx := context.Background()

	inserted, err := s.Engine.EnsureAllBackfilled(ctx)
	if err != nil {
		s.Log.Error("backfill run failed", "error", err, "inserted", inserted)
		return
	}
	if inserted > 0 {
		s.Log.Info("backfill run complete", "inserted", inserted)
	}
}
