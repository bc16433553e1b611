package metrics

import (
	"time"

	"galry/internal/logging"
	"galry/internal/variant"
)

// InventoryProvider reports what the variant cache holds on disk.
type InventoryProvider interface {
	Inventory() (variant.Inventory, error)
}

// InventoryFunc adapts a function to InventoryProvider.
type InventoryFunc func() (variant.Inventory, error)

// Inventory calls f.
func (f InventoryFunc) Inventory() (variant.Inventory, error) {
	return f()
}

// Collector periodically collects and updates cache inventory metrics
type Collector struct {
	provider InventoryProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider InventoryProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	start := time.Now()
	inv, err := c.provider.Inventory()
	VariantCacheLastScanDuration.Set(time.Since(start).Seconds())
	if err != nil {
		logging.Warn("Variant cache inventory failed: %v", err)
		return
	}

	for _, kind := range []variant.Kind{variant.Thumbnail, variant.Preview} {
		k := inv[kind]
		VariantCacheFiles.WithLabelValues(kind.Name()).Set(float64(k.Files))
		VariantCacheBytes.WithLabelValues(kind.Name()).Set(float64(k.Bytes))
	}

	logging.Debug("Metrics collected: thumbnails=%d, previews=%d",
		inv[variant.Thumbnail].Files, inv[variant.Preview].Files)
}
