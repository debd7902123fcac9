package telemetry

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSchedulerRunsTasksOnVirtualClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	var fast, slow atomic.Int32
	if !s.Start(
		Task{Name: "fast", Period: 100 * time.Millisecond, Run: func() { fast.Add(1) }},
		Task{Name: "slow", Period: time.Second, Run: func() { slow.Add(1) }},
	) {
		t.Fatal("expected start")
	}
	if s.Start() {
		t.Error("second start should be rejected")
	}

	clock.Advance(100 * time.Millisecond)
	waitFor(t, func() bool { return fast.Load() == 1 })
	if slow.Load() != 0 {
		t.Errorf("slow task ran early")
	}
	clock.Advance(900 * time.Millisecond)
	waitFor(t, func() bool { return slow.Load() == 1 })

	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped")
	}
	before := fast.Load()
	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	if fast.Load() != before {
		t.Errorf("task ran after stop")
	}
}

func TestTickPeriod(t *testing.T) {
	tests := []struct {
		interval time.Duration
		accel    float64
		want     time.Duration
	}{
		{time.Second, 1, time.Second},
		{time.Second, 10, 100 * time.Millisecond},
		{100 * time.Millisecond, 0, 100 * time.Millisecond},
		{100 * time.Millisecond, 1000, time.Millisecond},
	}
	for _, tt := range tests {
		if got := TickPeriod(tt.interval, tt.accel); got != tt.want {
			t.Errorf("TickPeriod(%v, %v) = %v, want %v", tt.interval, tt.accel, got, tt.want)
		}
	}
}
