package variant

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"galry/internal/filesystem"
)

// KindInventory counts persisted variants of one kind.
type KindInventory struct {
	Files int
	Bytes int64
}

// Inventory summarises what the variant cache currently holds on disk.
type Inventory map[Kind]KindInventory

// ScanInventory walks the cache area selected by policy and counts the
// persisted variants in every .thumb and .preview directory. Temporary
// files from in-flight writes are not counted. A ReadOnly policy, or a
// cache area that does not exist yet, yields an empty Inventory.
func ScanInventory(ctx context.Context, root string, policy Policy) (Inventory, error) {
	inv := Inventory{}
	base := root
	switch policy.Mode {
	case PolicyReadOnly:
		return inv, nil
	case PolicyAlternateDirectory:
		base = policy.Dir
	}

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != base {
				return nil
			}
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() || filesystem.IsTempName(d.Name()) {
			return nil
		}
		kind, ok := kindForCacheDir(filepath.Base(filepath.Dir(path)))
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		k := inv[kind]
		k.Files++
		k.Bytes += info.Size()
		inv[kind] = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func kindForCacheDir(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k != Original && k.CacheDirName() == name {
			return k, true
		}
	}
	return Original, false
}
