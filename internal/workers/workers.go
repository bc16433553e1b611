package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "GALRY_WORKERS"

// Count returns the number of workers for a task whose cost is multiplier
// times one CPU per worker. It respects container CPU limits via GOMAXPROCS.
//
// The limit parameter caps the worker count; use 0 for no limit. A positive
// integer in GALRY_WORKERS overrides the computed value (still capped).
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	// GOMAXPROCS follows the container CPU limit.
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

// ForCPU returns worker count for CPU-bound tasks such as image decoding
// and scaling (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns requested when it is positive, capped at limit, and
// ForCPU(limit) otherwise. It turns a --workers flag into a pool size.
func Resolve(requested, limit int) int {
	if requested > 0 {
		return capAt(requested, limit)
	}
	return ForCPU(limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
