package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// tempPrefix marks in-progress writes. The leading dot keeps them out of
// directory listings.
const tempPrefix = ".tmp-"

// WriteFileAtomic writes data to dir/name so that readers never observe a
// partially written file. The data goes to a temporary file in dir which is
// then renamed over the destination. dir must already exist.
//
// If ctx is cancelled before the rename, the temporary file is removed and
// ctx.Err() is returned. If the rename fails but the destination is a
// regular file, another writer won the race and the call succeeds. Any
// other destination (a directory, a socket) is an error.
func WriteFileAtomic(ctx context.Context, dir, name string, data []byte, perm os.FileMode) (err error) {
	start := time.Now()
	finalPath := filepath.Join(dir, name)
	volume := defaultResolver.Resolve(finalPath)
	defer func() {
		observe().ObserveOperation(volume, "write", time.Since(start).Seconds(), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		if info, statErr := os.Stat(finalPath); statErr == nil && info.Mode().IsRegular() {
			return nil
		}
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// IsTempName reports whether name is an in-progress WriteFileAtomic file.
func IsTempName(name string) bool {
	return len(name) > len(tempPrefix) && name[:len(tempPrefix)] == tempPrefix
}
