package variant

import (
	"context"
	"fmt"
	"sync"

	"galry/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsMu      sync.Mutex
	vipsStarted bool
)

// InitVips starts libvips once per process and routes its log output
// through the logging package. govips cannot be restarted after
// ShutdownVips, so call this once at startup.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		return
	}

	// Configure logging before Startup so libvips honours LOG_LEVEL from
	// its first message.
	minLevel := vipsLevelFor(logging.GetLevel())
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, minLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsStarted = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
		logging.Info("libvips shutdown complete")
	}
}

// vipsLevelFor maps the application log level to the least severe libvips
// level worth emitting.
func vipsLevelFor(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

// VipsGenerator is a Generator backed by libvips. It shrinks JPEGs during
// decode and uses far less memory than ImagingGenerator on large sources.
// InitVips must have been called.
type VipsGenerator struct {
	// MaxSourcePixels rejects larger sources with ErrImage. Zero disables
	// the limit.
	MaxSourcePixels int
}

// NewVipsGenerator starts libvips if needed and returns a generator with
// the default pixel limit.
func NewVipsGenerator() *VipsGenerator {
	InitVips()
	return &VipsGenerator{MaxSourcePixels: DefaultMaxSourcePixels}
}

// Generate follows the same contract as ImagingGenerator.Generate.
func (g *VipsGenerator) Generate(ctx context.Context, src []byte, kind Kind) (Generated, error) {
	maxW, maxH, ok := kind.Bounds()
	if !ok {
		return Generated{}, fmt.Errorf("kind %s has no bounds", kind)
	}

	ref, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return Generated{}, newError(ErrImage, "unsupported or corrupt image", err)
	}
	defer ref.Close()

	out := Generated{SourceWidth: ref.Width(), SourceHeight: ref.Height()}
	if g.MaxSourcePixels > 0 && out.SourceWidth*out.SourceHeight > g.MaxSourcePixels {
		return Generated{}, newError(ErrImage,
			fmt.Sprintf("%dx%d image exceeds %d pixels", out.SourceWidth, out.SourceHeight, g.MaxSourcePixels), nil)
	}
	if fitsWithin(out.SourceWidth, out.SourceHeight, maxW, maxH) {
		// Loading is lazy; pull the pixels so a truncated source fails here
		// instead of being served as the original.
		if _, err := ref.ToBytes(); err != nil {
			return Generated{}, newError(ErrImage, "decode", err)
		}
		out.Fits = true
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return Generated{}, err
	}

	if err := ref.AutoRotate(); err != nil {
		return Generated{}, newError(ErrImage, "auto-rotate", err)
	}
	if err := ref.Thumbnail(maxW, maxH, vips.InterestingNone); err != nil {
		return Generated{}, newError(ErrImage, "resize", err)
	}
	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return Generated{}, newError(ErrImage, "flatten alpha", err)
		}
	}

	params := vips.NewJpegExportParams()
	params.Quality = JPEGQuality
	params.OptimizeCoding = true
	data, _, err := ref.ExportJpeg(params)
	if err != nil {
		return Generated{}, newError(ErrImage, "encode jpeg", err)
	}

	out.Data = data
	out.Width = ref.Width()
	out.Height = ref.Height()
	return out, nil
}
