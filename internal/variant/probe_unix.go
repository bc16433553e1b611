//go:build unix

package variant

import "golang.org/x/sys/unix"

// checkWritable asks the kernel whether this process may create files in
// dir. It catches read-only mounts and ownership mismatches that the mode
// bits alone do not show.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}
