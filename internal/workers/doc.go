/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container CPU limit. Pool sizes are derived from GOMAXPROCS so that a pod
limited to 2 cores on a 64-core node runs 2 decoders, not 64.

	// One image decoder per available CPU, at most 8.
	n := workers.ForCPU(8)

	// Honour an explicit --workers flag, falling back to ForCPU.
	n = workers.Resolve(flagWorkers, 32)

# Environment Variable Override

GALRY_WORKERS fixes the pool size regardless of the CPU count. The limit
passed by the caller still applies.
*/
package workers
