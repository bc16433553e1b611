package variant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScanInventory(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "a/cat.png", 1600, 1200)
	writeImage(t, root, "a/dog.png", 1600, 1200)
	writeImage(t, root, "a/b/small.png", 50, 50)
	c := New(NewImagingGenerator())
	for _, rel := range []string{"a/cat.png", "a/dog.png", "a/b/small.png"} {
		for _, kind := range []Kind{Thumbnail, Preview} {
			if _, err := c.Get(context.Background(), Request{Root: root, Path: rel, Kind: kind, Policy: NormalPolicy()}); err != nil {
				t.Fatalf("Get(%s, %s): %v", rel, kind, err)
			}
		}
	}
	// In-flight temp files are ignored.
	if err := os.WriteFile(filepath.Join(root, "a", ".thumb", ".tmp-123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv, err := ScanInventory(context.Background(), root, NormalPolicy())
	if err != nil {
		t.Fatalf("ScanInventory() error = %v", err)
	}
	if got := inv[Thumbnail].Files; got != 2 {
		t.Errorf("thumbnail files = %d, want 2", got)
	}
	if got := inv[Preview].Files; got != 2 {
		t.Errorf("preview files = %d, want 2", got)
	}
	if inv[Thumbnail].Bytes <= 0 || inv[Preview].Bytes <= inv[Thumbnail].Bytes {
		t.Errorf("unexpected byte counts: %+v", inv)
	}
}

func TestScanInventory_AlternateAndReadOnly(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "cat.png", 1600, 1200)
	thumbs := filepath.Join(t.TempDir(), "thumbs")

	inv, err := ScanInventory(context.Background(), root, AlternateDirectoryPolicy(thumbs))
	if err != nil || len(inv) != 0 {
		t.Fatalf("missing cache area: inv = %v, err = %v", inv, err)
	}

	c := New(NewImagingGenerator())
	if _, err := c.Get(context.Background(), Request{Root: root, Path: "cat.png", Kind: Thumbnail, Policy: AlternateDirectoryPolicy(thumbs)}); err != nil {
		t.Fatal(err)
	}
	inv, err = ScanInventory(context.Background(), root, AlternateDirectoryPolicy(thumbs))
	if err != nil {
		t.Fatal(err)
	}
	if inv[Thumbnail].Files != 1 {
		t.Errorf("thumbnail files = %d, want 1", inv[Thumbnail].Files)
	}

	inv, err = ScanInventory(context.Background(), root, ReadOnlyPolicy())
	if err != nil || len(inv) != 0 {
		t.Errorf("read-only: inv = %v, err = %v", inv, err)
	}
}

func TestScanInventory_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "a/.thumb/cat.png", 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScanInventory(ctx, root, NormalPolicy()); err == nil {
		t.Error("ScanInventory() with cancelled context succeeded")
	}
}
