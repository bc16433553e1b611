package variant

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"galry/internal/filesystem"
)

func newTestCache(t *testing.T) (*Cache, *countingGenerator, *recordingObserver) {
	t.Helper()
	gen := &countingGenerator{Generator: NewImagingGenerator()}
	obs := &recordingObserver{}
	return New(gen, WithObserver(obs), WithRetryConfig(filesystem.DefaultRetryConfig())), gen, obs
}

func mustGet(t *testing.T, c *Cache, req Request) Rendered {
	t.Helper()
	r, err := c.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get(%+v) error = %v", req, err)
	}
	return r
}

func TestCache_ThumbnailScenario(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 4000, 3000)
	c, gen, obs := newTestCache(t)
	req := Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: NormalPolicy()}

	first, ok := mustGet(t, c, req).(FileResult)
	if !ok {
		t.Fatalf("first Get() returned %T, want FileResult", first)
	}
	wantPath := filepath.Join(root, "gallery", ".thumb", "cat.png")
	if first.Path != wantPath || first.Outcome != ServeFile {
		t.Fatalf("first Get() = %+v, want %s generated", first, wantPath)
	}

	cached, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	w, h := decodeSize(t, cached)
	if w > ThumbnailWidth || h > ThumbnailHeight {
		t.Errorf("thumbnail %dx%d exceeds bounds", w, h)
	}
	if ratio := float64(w) / float64(h); ratio < 1.32 || ratio > 1.34 {
		t.Errorf("aspect ratio = %.3f, want ~4:3", ratio)
	}

	second, ok := mustGet(t, c, req).(FileResult)
	if !ok || second.Outcome != ServeExisting || second.Path != wantPath {
		t.Fatalf("second Get() = %+v, want existing %s", second, wantPath)
	}
	again, _ := os.ReadFile(second.Path)
	if !bytes.Equal(again, cached) {
		t.Error("second response differs from the cached file")
	}

	if n := gen.calls.Load(); n != 1 {
		t.Errorf("generator calls = %d, want 1", n)
	}
	if want := []Outcome{ServeFile, ServeExisting}; !reflect.DeepEqual(obs.outcomes, want) {
		t.Errorf("outcomes = %v, want %v", obs.outcomes, want)
	}

	// Nothing but the variant lands in the cache directory.
	entries, _ := os.ReadDir(filepath.Dir(wantPath))
	if len(entries) != 1 {
		t.Errorf("cache dir holds %d entries, want 1", len(entries))
	}
}

func TestCache_SmallImageServesOriginal(t *testing.T) {
	root := t.TempDir()
	source := writeImage(t, root, "gallery/small.png", 100, 80)
	c, gen, _ := newTestCache(t)

	for _, kind := range []Kind{Thumbnail, Preview} {
		r := mustGet(t, c, Request{Root: root, Path: "gallery/small.png", Kind: kind, Policy: NormalPolicy()})
		fr, ok := r.(FileResult)
		if !ok || fr.Outcome != ServeOriginal || fr.Path != source {
			t.Fatalf("%s: Get() = %+v, want original %s", kind, r, source)
		}
	}

	for _, dir := range []string{".thumb", ".preview"} {
		if _, err := os.Stat(filepath.Join(root, "gallery", dir)); !os.IsNotExist(err) {
			t.Errorf("%s was created for an image that fits", dir)
		}
	}
	if n := gen.calls.Load(); n != 2 {
		t.Errorf("generator calls = %d, want 2", n)
	}
}

func TestCache_TruncatedSmallImageIsImageError(t *testing.T) {
	root := t.TempDir()
	source := writeImage(t, root, "gallery/small.png", 100, 80)
	data, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := os.WriteFile(source, data[:40], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, _, _ := newTestCache(t)

	for _, kind := range []Kind{Thumbnail, Preview} {
		r, err := c.Get(context.Background(), Request{Root: root, Path: "gallery/small.png", Kind: kind, Policy: NormalPolicy()})
		if r != nil {
			t.Errorf("%s: Get() = %+v, want nil result", kind, r)
		}
		if !errors.Is(err, ErrImage) {
			t.Errorf("%s: Get() error = %v, want ErrImage", kind, err)
		}
	}
}

func TestCache_Original(t *testing.T) {
	root := t.TempDir()
	source := writeImage(t, root, "gallery/cat.png", 4000, 3000)
	c, gen, _ := newTestCache(t)

	r := mustGet(t, c, Request{Root: root, Path: "gallery/cat.png", Kind: Original, Policy: NormalPolicy()})
	fr, ok := r.(FileResult)
	if !ok || fr.Path != source || fr.Outcome != ServeOriginal {
		t.Fatalf("Get() = %+v, want original", r)
	}
	if gen.calls.Load() != 0 {
		t.Error("Original request invoked the generator")
	}
	if got := snapshot(t, root); !reflect.DeepEqual(got, []string{".", "gallery", filepath.Join("gallery", "cat.png")}) {
		t.Errorf("tree changed: %v", got)
	}
}

func TestCache_ReadOnlyNeverWrites(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	writeImage(t, root, "gallery/wide.png", 4000, 1000)
	before := snapshot(t, root)
	c, _, obs := newTestCache(t)

	for _, rel := range []string{"gallery/cat.png", "gallery/wide.png"} {
		for _, kind := range []Kind{Thumbnail, Preview} {
			r := mustGet(t, c, Request{Root: root, Path: rel, Kind: kind, Policy: ReadOnlyPolicy()})
			br, ok := r.(BytesResult)
			if !ok {
				t.Fatalf("%s %s: Get() returned %T, want BytesResult", rel, kind, r)
			}
			if br.ContentType != "image/jpeg" {
				t.Errorf("ContentType = %q", br.ContentType)
			}
			maxW, maxH, _ := kind.Bounds()
			w, h := decodeSize(t, br.Data)
			if w > maxW || h > maxH || (w != maxW && h != maxH) {
				t.Errorf("%s %s: %dx%d does not fit %dx%d", rel, kind, w, h, maxW, maxH)
			}
		}
	}

	if after := snapshot(t, root); !reflect.DeepEqual(before, after) {
		t.Errorf("read-only request changed the tree:\nbefore %v\nafter  %v", before, after)
	}
	for _, reason := range obs.degraded {
		if reason != ReasonNoCandidate {
			t.Errorf("degraded reason = %v, want read_only", reason)
		}
	}
}

func TestCache_ReadOnlyIgnoresExistingCache(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	writeImage(t, root, "gallery/.thumb/cat.png", 10, 10)
	c, _, _ := newTestCache(t)

	r := mustGet(t, c, Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: ReadOnlyPolicy()})
	if _, ok := r.(BytesResult); !ok {
		t.Errorf("Get() returned %T, want BytesResult", r)
	}
}

func TestCache_UnwritableDirectoryFallsBack(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	thumbDir := filepath.Join(root, "gallery", ".thumb")
	if err := os.Mkdir(thumbDir, 0o555); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(thumbDir, 0o755) })
	c, _, obs := newTestCache(t)

	r := mustGet(t, c, Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: NormalPolicy()})
	br, ok := r.(BytesResult)
	if !ok {
		t.Fatalf("Get() returned %T, want BytesResult", r)
	}
	if br.Reason != ReasonPermission.String() {
		t.Errorf("Reason = %q, want permission", br.Reason)
	}
	if entries, _ := os.ReadDir(thumbDir); len(entries) != 0 {
		t.Errorf("unwritable cache dir has entries: %v", entries)
	}
	if !reflect.DeepEqual(obs.degraded, []UnwritableReason{ReasonPermission}) {
		t.Errorf("degraded = %v", obs.degraded)
	}
}

func TestCache_DirectoryAtCandidateFallsBack(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	candidate := filepath.Join(root, "gallery", ".thumb", "cat.png")
	if err := os.MkdirAll(candidate, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	c, _, obs := newTestCache(t)

	for i := 0; i < 2; i++ {
		r := mustGet(t, c, Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: NormalPolicy()})
		br, ok := r.(BytesResult)
		if !ok {
			t.Fatalf("Get() = %+v, want BytesResult", r)
		}
		if br.Reason != ReasonCandidateNotFile.String() {
			t.Errorf("Reason = %q, want candidate_not_file", br.Reason)
		}
		if w, h := decodeSize(t, br.Data); w > ThumbnailWidth || h > ThumbnailHeight {
			t.Errorf("thumbnail %dx%d exceeds bounds", w, h)
		}
	}

	if info, err := os.Stat(candidate); err != nil || !info.IsDir() {
		t.Errorf("candidate directory changed: %v", err)
	}
	want := []UnwritableReason{ReasonCandidateNotFile, ReasonCandidateNotFile}
	if !reflect.DeepEqual(obs.degraded, want) {
		t.Errorf("degraded = %v, want %v", obs.degraded, want)
	}
}

func TestCache_NonWritableParentFallsBack(t *testing.T) {
	skipIfRoot(t)

	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	gallery := filepath.Join(root, "gallery")
	if err := os.Chmod(gallery, 0o555); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(gallery, 0o755) })
	c, _, _ := newTestCache(t)

	r := mustGet(t, c, Request{Root: root, Path: "gallery/cat.png", Kind: Preview, Policy: NormalPolicy()})
	br, ok := r.(BytesResult)
	if !ok {
		t.Fatalf("Get() returned %T, want BytesResult", r)
	}
	if w, h := decodeSize(t, br.Data); w != 1440 || h != 1080 {
		t.Errorf("preview = %dx%d, want 1440x1080", w, h)
	}
	if _, err := os.Stat(filepath.Join(gallery, ".preview")); !os.IsNotExist(err) {
		t.Error(".preview created under a read-only parent")
	}
}

func TestCache_AlternateDirectory(t *testing.T) {
	root := t.TempDir()
	thumbs := filepath.Join(t.TempDir(), "cache")
	writeImage(t, root, "a/b/c.png", 1600, 1200)
	before := snapshot(t, root)
	c, _, _ := newTestCache(t)

	r := mustGet(t, c, Request{Root: root, Path: "a/b/c.png", Kind: Thumbnail, Policy: AlternateDirectoryPolicy(thumbs)})
	fr, ok := r.(FileResult)
	want := filepath.Join(thumbs, "a", "b", ".thumb", "c.png")
	if !ok || fr.Path != want || fr.Outcome != ServeFile {
		t.Fatalf("Get() = %+v, want generated %s", r, want)
	}
	if after := snapshot(t, root); !reflect.DeepEqual(before, after) {
		t.Errorf("source tree changed: %v", after)
	}
}

func TestCache_Errors(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	if err := os.WriteFile(filepath.Join(root, "gallery", "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, _, _ := newTestCache(t)

	tests := []struct {
		name  string
		path  string
		kind  Kind
		want  error
		label string
	}{
		{"traversal", "../outside.png", Thumbnail, ErrBadRequest, LabelBadRequest},
		{"traversal original", "gallery/../../x.png", Original, ErrBadRequest, LabelBadRequest},
		{"missing", "gallery/dog.png", Thumbnail, ErrNotFound, LabelNotFound},
		{"missing original", "gallery/dog.png", Original, ErrNotFound, LabelNotFound},
		{"corrupt", "gallery/broken.jpg", Preview, ErrImage, LabelImageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := c.Get(context.Background(), Request{Root: root, Path: tt.path, Kind: tt.kind, Policy: NormalPolicy()})
			if r != nil {
				t.Errorf("Get() = %+v, want nil result", r)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Get() error = %v, want %v", err, tt.want)
			}
			if got := Classify(err); got != tt.label {
				t.Errorf("Classify() = %q, want %q", got, tt.label)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(root, "gallery", ".preview")); !os.IsNotExist(err) {
		t.Error("corrupt source left a .preview directory")
	}
}

func TestCache_ConcurrentRequests(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	c := New(NewImagingGenerator())
	req := Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: NormalPolicy()}

	var wg sync.WaitGroup
	results := make([]Rendered, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d: Get() error = %v", i, err)
		}
		var data []byte
		switch r := results[i].(type) {
		case FileResult:
			data, err = os.ReadFile(r.Path)
			if err != nil {
				t.Fatalf("request %d: %v", i, err)
			}
		case BytesResult:
			data = r.Data
		}
		if w, h := decodeSize(t, data); w != 333 || h != 250 {
			t.Errorf("request %d served %dx%d, want 333x250", i, w, h)
		}
	}

	entries, err := os.ReadDir(filepath.Join(root, "gallery", ".thumb"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "cat.png" {
			t.Errorf("unexpected cache entry %q", e.Name())
		}
	}
}

func TestCache_CancelledContextLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "gallery/cat.png", 1600, 1200)
	c, _, _ := newTestCache(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, Request{Root: root, Path: "gallery/cat.png", Kind: Thumbnail, Policy: NormalPolicy()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}
	if Classify(err) != LabelInternal {
		t.Errorf("Classify() = %q", Classify(err))
	}

	for _, p := range snapshot(t, root) {
		if filesystem.IsTempName(filepath.Base(p)) || strings.HasSuffix(p, filepath.Join(".thumb", "cat.png")) {
			t.Errorf("leftover %s after cancellation", p)
		}
	}
}

// failingGenerator always fails with an unclassified error.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, []byte, Kind) (Generated, error) {
	return Generated{}, errors.New("backend exploded")
}

func TestCache_UnclassifiedGeneratorErrorIsImageError(t *testing.T) {
	root := t.TempDir()
	writeImage(t, root, "cat.png", 1600, 1200)
	c := New(failingGenerator{})

	_, err := c.Get(context.Background(), Request{Root: root, Path: "cat.png", Kind: Thumbnail, Policy: NormalPolicy()})
	if !errors.Is(err, ErrImage) {
		t.Errorf("Get() error = %v, want ErrImage", err)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		r    Rendered
		want Outcome
	}{
		{FileResult{Outcome: ServeOriginal}, ServeOriginal},
		{FileResult{Outcome: ServeExisting}, ServeExisting},
		{FileResult{Outcome: ServeFile}, ServeFile},
		{BytesResult{}, ServeInMemory},
	}
	for _, tt := range tests {
		if got := OutcomeOf(tt.r); got != tt.want {
			t.Errorf("OutcomeOf(%T) = %v, want %v", tt.r, got, tt.want)
		}
	}
}
