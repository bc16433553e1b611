package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"galry/internal/metrics"
)

func newTestMonitor(limit int64) *Monitor {
	return NewMonitor(Config{
		MemoryLimitBytes:  limit,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("HighWaterMark %.2f should be below CriticalWaterMark %.2f", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval <= 0 {
		t.Errorf("CheckInterval should be positive, got %v", cfg.CheckInterval)
	}
	if cfg.MemoryLimitBytes != 0 {
		t.Errorf("Expected MemoryLimitBytes to be 0, got %d", cfg.MemoryLimitBytes)
	}
}

func TestMonitorTransitions(t *testing.T) {
	const limit = 1000
	m := newTestMonitor(limit)

	tests := []struct {
		name       string
		alloc      uint64
		wantPaused bool
	}{
		{"below high water", 500, false},
		{"between marks stays running", 800, false},
		{"at critical pauses", 850, true},
		{"between marks stays paused", 750, true},
		{"below high water resumes", 600, false},
	}

	for _, tt := range tests {
		m.update(tt.alloc)
		if got := m.IsPaused(); got != tt.wantPaused {
			t.Errorf("%s: IsPaused() = %v, want %v", tt.name, got, tt.wantPaused)
		}
		if got, want := m.Usage(), float64(tt.alloc)/limit; got != want {
			t.Errorf("%s: Usage() = %f, want %f", tt.name, got, want)
		}
	}
}

func TestMonitorUpdatesMetrics(t *testing.T) {
	m := newTestMonitor(1000)
	before := testutil.ToFloat64(metrics.MemoryGCPauses)

	m.update(900)
	if got := testutil.ToFloat64(metrics.MemoryPaused); got != 1 {
		t.Errorf("MemoryPaused = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.MemoryUsageRatio); got != 0.9 {
		t.Errorf("MemoryUsageRatio = %v, want 0.9", got)
	}
	if got := testutil.ToFloat64(metrics.MemoryGCPauses); got != before+1 {
		t.Errorf("MemoryGCPauses = %v, want %v", got, before+1)
	}

	m.update(100)
	if got := testutil.ToFloat64(metrics.MemoryPaused); got != 0 {
		t.Errorf("MemoryPaused = %v, want 0", got)
	}
}

func TestMonitorWait(t *testing.T) {
	t.Run("running returns immediately", func(t *testing.T) {
		m := newTestMonitor(1000)
		if err := m.Wait(context.Background()); err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	})

	t.Run("paused waits for resume", func(t *testing.T) {
		m := newTestMonitor(1000)
		m.update(900)

		done := make(chan error, 1)
		go func() { done <- m.Wait(context.Background()) }()

		select {
		case err := <-done:
			t.Fatalf("Wait returned %v while paused", err)
		case <-time.After(20 * time.Millisecond):
		}

		m.update(100)
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Wait() = %v, want nil", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Wait did not return after resume")
		}
	})

	t.Run("paused honors context", func(t *testing.T) {
		m := newTestMonitor(1000)
		m.update(900)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() = %v, want context.Canceled", err)
		}
	})

	t.Run("stop releases waiters", func(t *testing.T) {
		m := newTestMonitor(1000)
		m.update(900)

		done := make(chan error, 1)
		go func() { done <- m.Wait(context.Background()) }()
		m.Stop()
		m.Stop()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Wait() = %v, want nil", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Wait did not return after Stop")
		}
	})
}

func TestMonitorWithoutLimit(t *testing.T) {
	m := &Monitor{config: DefaultConfig(), stopChan: make(chan struct{}), resume: make(chan struct{})}

	m.update(1 << 40)
	if m.IsPaused() {
		t.Error("monitor without a limit should never pause")
	}
	if m.Usage() != 0 {
		t.Errorf("Usage() = %f, want 0", m.Usage())
	}

	// Start is a no-op without a limit.
	m.Start()
	m.Stop()
}

func TestMonitorStartStop(t *testing.T) {
	m := NewMonitor(Config{
		MemoryLimitBytes:  1 << 40,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Millisecond,
	})
	m.Start()
	time.Sleep(30 * time.Millisecond)
	m.Stop()

	if m.Usage() <= 0 {
		t.Errorf("Usage() = %f, expected a sampled value", m.Usage())
	}
	if m.IsPaused() {
		t.Error("a 1TiB limit should not pause")
	}
}
