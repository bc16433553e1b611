package variant

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	// Source formats beyond the jpeg/png/gif set imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const (
	// JPEGQuality is the quality of every generated variant.
	JPEGQuality = 90
	// ContentType is the media type of generated variants.
	ContentType = "image/jpeg"
	// DefaultMaxSourcePixels bounds the decoded size of a source image
	// (about 800MB as NRGBA).
	DefaultMaxSourcePixels = 200_000_000
)

// Generator backends.
const (
	BackendImaging = "imaging"
	BackendVips    = "vips"
)

// NewGenerator returns the Generator for backend and a function releasing
// its resources. Sources above maxSourcePixels are rejected; zero or less
// means DefaultMaxSourcePixels.
func NewGenerator(backend string, maxSourcePixels int) (Generator, func(), error) {
	if maxSourcePixels <= 0 {
		maxSourcePixels = DefaultMaxSourcePixels
	}
	switch backend {
	case BackendImaging:
		return &ImagingGenerator{MaxSourcePixels: maxSourcePixels}, func() {}, nil
	case BackendVips:
		g := NewVipsGenerator()
		g.MaxSourcePixels = maxSourcePixels
		return g, ShutdownVips, nil
	default:
		return nil, nil, fmt.Errorf("unknown image backend %q (want %s or %s)", backend, BackendImaging, BackendVips)
	}
}

// Generated is the output of a Generator.
type Generated struct {
	// Fits is set when the source already lies within the bounding box.
	// Nothing is encoded and the caller serves the source instead.
	Fits bool
	// Data holds the JPEG encoding when Fits is false.
	Data                      []byte
	Width, Height             int
	SourceWidth, SourceHeight int
}

// Generator produces scaled variants from source bytes. Implementations
// must be safe for concurrent use and deterministic for a given input.
type Generator interface {
	Generate(ctx context.Context, src []byte, kind Kind) (Generated, error)
}

// ImagingGenerator is the pure-Go Generator built on
// github.com/disintegration/imaging.
type ImagingGenerator struct {
	// MaxSourcePixels rejects larger sources with ErrImage. Zero disables
	// the limit.
	MaxSourcePixels int
}

// NewImagingGenerator returns an ImagingGenerator with the default pixel
// limit.
func NewImagingGenerator() *ImagingGenerator {
	return &ImagingGenerator{MaxSourcePixels: DefaultMaxSourcePixels}
}

// Generate decodes the source (applying EXIF orientation) and returns Fits
// when it already lies within the bounding box of kind. Otherwise it
// scales to fit preserving aspect ratio, flattens transparency onto white
// and encodes JPEG. The header is read first so oversized sources are
// rejected before their pixels are allocated.
func (g *ImagingGenerator) Generate(ctx context.Context, src []byte, kind Kind) (Generated, error) {
	maxW, maxH, ok := kind.Bounds()
	if !ok {
		return Generated{}, fmt.Errorf("kind %s has no bounds", kind)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return Generated{}, newError(ErrImage, "unsupported or corrupt image", err)
	}
	if g.MaxSourcePixels > 0 && cfg.Width*cfg.Height > g.MaxSourcePixels {
		return Generated{}, newError(ErrImage,
			fmt.Sprintf("%dx%d %s image exceeds %d pixels", cfg.Width, cfg.Height, format, g.MaxSourcePixels), nil)
	}

	if err := ctx.Err(); err != nil {
		return Generated{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return Generated{}, newError(ErrImage, "decode "+format, err)
	}

	out := Generated{SourceWidth: cfg.Width, SourceHeight: cfg.Height}
	if fitsWithin(cfg.Width, cfg.Height, maxW, maxH) {
		out.Fits = true
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return Generated{}, err
	}

	scaled := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	if !scaled.Opaque() {
		bg := imaging.New(scaled.Bounds().Dx(), scaled.Bounds().Dy(), color.White)
		scaled = imaging.Overlay(bg, scaled, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return Generated{}, newError(ErrImage, "encode jpeg", err)
	}

	out.Data = buf.Bytes()
	out.Width = scaled.Bounds().Dx()
	out.Height = scaled.Bounds().Dy()
	return out, nil
}

func fitsWithin(w, h, maxW, maxH int) bool {
	return w <= maxW && h <= maxH
}
