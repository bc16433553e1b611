/*
Package filesystem provides the filesystem primitives the gallery relies on:
retrying reads for NFS-mounted image roots and crash-safe atomic writes for
the variant cache.

# Retry Behavior

StatWithRetry, OpenWithRetry and ReadDirWithRetry wrap the matching os
calls. Only ESTALE (stale NFS file handle) triggers a retry; every other
error is returned immediately. Backoff doubles from InitialBackoff up to
MaxBackoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

# Atomic Writes

WriteFileAtomic writes into a hidden temporary file inside the destination
directory and renames it into place, so a concurrent reader either sees no
file or the complete file. If the rename loses a race against another
writer that already produced the destination, the write counts as a
success. Temporary files are removed on every failure path, including
context cancellation.

# Metrics

Operations report to an Observer (see SetObserver), labelled with the
volume returned by the configured VolumeResolver. The metrics package
provides the Prometheus-backed implementation; with no observer set,
recording is skipped.
*/
package filesystem
