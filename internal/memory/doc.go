// Package memory keeps image decoding inside the container's memory limit.
//
// # Overview
//
// Decoding a large photo allocates a full bitmap, so a batch of parallel
// generations can exceed a container limit quickly. Go detects the CPU limit
// for GOMAXPROCS but GOMEMLIMIT must be configured explicitly.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the container limit. Call it early
// in main, before the first image is decoded:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. If set, it takes
//     precedence and is only reported.
//
//   - MEMORY_LIMIT: Container memory limit in bytes, typically from the
//     Kubernetes Downward API (resourceFieldRef limits.memory).
//
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap, between 0.0
//     and 1.0. Default 0.85. Lower it when the vips backend is in use, since
//     libvips allocates outside the Go heap.
//
// # Backpressure
//
// A [Monitor] samples heap usage and pauses new work above the critical
// water mark until usage falls below the high water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	for _, file := range files {
//	    if err := monitor.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // generate variants for file
//	}
//
// The monitor updates the galry_memory_* metrics as it samples.
package memory
