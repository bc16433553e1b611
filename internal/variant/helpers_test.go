package variant

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
)

// writeImage writes a width x height image to root/rel, creating parent
// directories. The format follows the file extension.
func writeImage(t *testing.T, root, rel string, width, height int) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Save %s: %v", path, err)
	}
	return path
}

func pngBytes(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(width, height, c)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	return cfg.Width, cfg.Height
}

// snapshot lists every path under root, relative to it.
func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir: %v", err)
	}
	sort.Strings(paths)
	return paths
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
}

// countingGenerator counts Generate calls on the wrapped generator.
type countingGenerator struct {
	Generator
	calls atomic.Int32
}

func (g *countingGenerator) Generate(ctx context.Context, src []byte, kind Kind) (Generated, error) {
	g.calls.Add(1)
	return g.Generator.Generate(ctx, src, kind)
}

// recordingObserver collects Cache events.
type recordingObserver struct {
	outcomes    []Outcome
	degraded    []UnwritableReason
	generations int
}

func (r *recordingObserver) ObserveOutcome(_ Kind, o Outcome) { r.outcomes = append(r.outcomes, o) }
func (r *recordingObserver) ObserveGeneration(Kind, float64, error) {
	r.generations++
}
func (r *recordingObserver) ObserveDegraded(_ Kind, reason UnwritableReason) {
	r.degraded = append(r.degraded, reason)
}
