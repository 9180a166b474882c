/*
scheduler.go - Automated auto clock-out scheduler

PURPOSE:
  Periodically runs the auto clock-out sweep so forgotten sessions get
  closed without any manual trigger.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick invokes the engine's sweep for the current moment
  - Sessions that are mid-tap are skipped and retried next tick

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 30 minutes)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(eng)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunSweep endpoint (manual trigger)
  - ../engine/sweeper.go: Sweep implementation
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/attendance-engine/engine"
)

// SweepScheduler runs the auto clock-out sweep on a timer.
type SweepScheduler struct {
	Engine        *engine.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(eng *engine.Service) *SweepScheduler {
	interval := eng.Settings().AutoClockOutInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &SweepScheduler{
		Engine:        eng,
		CheckInterval: interval,
		Enabled:       eng.Settings().AutoClockOutEnabled,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Sweeper] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.sweep()

	for {
		select {
		case <-ss.ticker.C:
			ss.sweep()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) sweep() {
	ctx := context.Background()
	now := time.Now()

	closed, err := ss.Engine.RunAutoClockOutSweep(ctx, now)
	if err != nil {
		log.Printf("[Sweeper] Sweep failed: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("[Sweeper] Closed %d forgotten sessions", closed)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ss *SweepScheduler) RunNow() {
	ss.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (ss *SweepScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ss.CheckInterval)
}
