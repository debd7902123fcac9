package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// minTickPeriod bounds how fast a task can be scheduled under heavy
// time acceleration.
const minTickPeriod = time.Millisecond

// Task is a named periodic job run by the Scheduler.
type Task struct {
	Name   string
	Period time.Duration
	Run    func()
}

// Scheduler runs a set of tasks, each on its own ticker, from a single clock.
// A Scheduler can be started again after Stop.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler returns a scheduler driven by clock. A nil clock uses wall time.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Start begins running tasks. Tickers are created before Start returns, so a
// fake clock advanced afterwards fires them. Start on a running scheduler
// returns false.
func (s *Scheduler) Start(tasks ...Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	for _, t := range tasks {
		period := t.Period
		if period < minTickPeriod {
			period = minTickPeriod
		}
		ticker := s.clock.NewTicker(period)
		s.wg.Add(1)
		go s.loop(ctx, ticker, t.Run)
	}
	return true
}

func (s *Scheduler) loop(ctx context.Context, ticker clockwork.Ticker, run func()) {
	defer s.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// a tick racing with cancellation must not run
			if ctx.Err() != nil {
				return
			}
			run()
		}
	}
}

// Stop cancels every task and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}

// Running reports whether tasks are scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TickPeriod converts a simulated interval into a wall-clock period under the
// given time acceleration.
func TickPeriod(interval time.Duration, acceleration float64) time.Duration {
	if acceleration <= 0 {
		acceleration = 1
	}
	p := time.Duration(float64(interval) / acceleration)
	if p < minTickPeriod {
		p = minTickPeriod
	}
	return p
}
