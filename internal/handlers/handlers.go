package handlers

import (
	"time"

	"galry/internal/filesystem"
	"galry/internal/startup"
	"galry/internal/variant"
)

// Handlers serves the gallery HTTP API from a variant cache.
type Handlers struct {
	cache            *variant.Cache
	rootDir          string
	policy           variant.Policy
	zoomShowsPreview bool
	retry            filesystem.RetryConfig
	started          time.Time
}

// New returns handlers serving config.RootDir through cache.
func New(cache *variant.Cache, config *startup.Config) *Handlers {
	return &Handlers{
		cache:            cache,
		rootDir:          config.RootDir,
		policy:           config.Policy(),
		zoomShowsPreview: config.ZoomShowsPreview,
		retry:            filesystem.DefaultRetryConfig(),
		started:          time.Now(),
	}
}
