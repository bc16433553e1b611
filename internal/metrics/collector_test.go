package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"galry/internal/variant"
)

type mockInventoryProvider struct {
	mu    sync.Mutex
	inv   variant.Inventory
	err   error
	calls int
}

func (m *mockInventoryProvider) Inventory() (variant.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.inv, m.err
}

func (m *mockInventoryProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockInventoryProvider{}
	collector := NewCollector(provider, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.provider != provider {
		t.Error("provider not set correctly")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}
	if collector.stopChan == nil {
		t.Error("stopChan not initialized")
	}
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockInventoryProvider{inv: variant.Inventory{
		variant.Thumbnail: {Files: 12, Bytes: 120000},
		variant.Preview:   {Files: 3, Bytes: 900000},
	}}
	collector := NewCollector(provider, time.Minute)
	collector.collect()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"thumb files", testutil.ToFloat64(VariantCacheFiles.WithLabelValues("thumb")), 12},
		{"thumb bytes", testutil.ToFloat64(VariantCacheBytes.WithLabelValues("thumb")), 120000},
		{"preview files", testutil.ToFloat64(VariantCacheFiles.WithLabelValues("preview")), 3},
		{"preview bytes", testutil.ToFloat64(VariantCacheBytes.WithLabelValues("preview")), 900000},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	VariantCacheFiles.WithLabelValues("thumb").Set(7)
	provider := &mockInventoryProvider{err: errors.New("walk failed")}
	NewCollector(provider, time.Minute).collect()

	if got := testutil.ToFloat64(VariantCacheFiles.WithLabelValues("thumb")); got != 7 {
		t.Errorf("thumb files = %v, want unchanged 7", got)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	NewCollector(nil, time.Minute).collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockInventoryProvider{inv: variant.Inventory{}}
	collector := NewCollector(provider, 20*time.Millisecond)

	collector.Start()
	time.Sleep(100 * time.Millisecond)
	collector.Stop()

	if n := provider.callCount(); n < 2 {
		t.Errorf("provider called %d times, want at least 2", n)
	}
}

func TestInventoryFunc(t *testing.T) {
	called := false
	var p InventoryProvider = InventoryFunc(func() (variant.Inventory, error) {
		called = true
		return variant.Inventory{}, nil
	})
	if _, err := p.Inventory(); err != nil || !called {
		t.Errorf("InventoryFunc not invoked: called=%v err=%v", called, err)
	}
}
