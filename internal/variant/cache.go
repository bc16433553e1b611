package variant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"galry/internal/filesystem"
	"galry/internal/logging"
)

// Request identifies one variant of one image.
type Request struct {
	// Root is the directory tree images are served from.
	Root string
	// Path is the slash-separated image path relative to Root.
	Path   string
	Kind   Kind
	Policy Policy
}

// Cache resolves variant requests, generating and persisting scaled
// variants on demand. It holds no mutable state; concurrent Get calls
// only share the filesystem.
type Cache struct {
	gen      Generator
	resolver *PathResolver
	probe    *CacheProbe
	observer Observer
	retry    filesystem.RetryConfig
	filePerm os.FileMode
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver reports request events to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithRetryConfig sets the NFS retry behaviour for source and cache reads.
func WithRetryConfig(rc filesystem.RetryConfig) Option {
	return func(c *Cache) {
		c.retry = rc
	}
}

// WithPermissions sets the modes for created cache directories and files.
func WithPermissions(dirPerm, filePerm os.FileMode) Option {
	return func(c *Cache) {
		c.probe = NewCacheProbe(c.retry, dirPerm)
		c.filePerm = filePerm
	}
}

// New returns a Cache that scales images with gen.
func New(gen Generator, opts ...Option) *Cache {
	c := &Cache{
		gen:      gen,
		observer: nopObserver{},
		retry:    filesystem.DefaultRetryConfig(),
		filePerm: 0o644,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = NewPathResolver(c.retry)
	if c.probe == nil {
		c.probe = NewCacheProbe(c.retry, 0o755)
	} else {
		c.probe.retry = c.retry
	}
	return c
}

// Get returns the requested variant.
//
// Original requests stream the source. For scaled kinds an existing cache
// file is served without reading the source. Otherwise the source is
// scaled; sources already inside the bounding box are served unmodified
// and nothing is written. A generated variant is persisted when the cache
// directory is writable and served from the new file; any obstacle to
// persisting it yields a BytesResult instead of an error.
//
// Errors are *Error values (see Classify), or ctx.Err() when ctx ends
// while generating or persisting.
func (c *Cache) Get(ctx context.Context, req Request) (Rendered, error) {
	paths, err := c.resolver.Resolve(req.Root, req.Path, req.Kind, req.Policy)
	if err != nil {
		return nil, err
	}

	if req.Kind == Original {
		return c.file(req.Kind, paths.Source, ServeOriginal), nil
	}

	if paths.HasCandidate() && c.probe.Lookup(paths.Candidate) {
		logging.Debug("Variant cache hit: %s", paths.Candidate)
		return c.file(req.Kind, paths.Candidate, ServeExisting), nil
	}

	gen, err := c.generate(ctx, paths, req.Kind)
	if err != nil {
		return nil, err
	}

	if gen.Fits {
		logging.Debug("Variant %s of %s: source %dx%d fits, serving original",
			req.Kind, paths.Rel, gen.SourceWidth, gen.SourceHeight)
		return c.file(req.Kind, paths.Source, ServeOriginal), nil
	}

	if !paths.HasCandidate() {
		return c.inMemory(req.Kind, gen.Data, ReasonNoCandidate), nil
	}

	probe := c.probe.Probe(paths.Candidate)
	switch probe.State {
	case StateHit:
		// Another request persisted it while we were generating.
		return c.file(req.Kind, probe.Path, ServeExisting), nil
	case StateMissUnwritable:
		logging.Debug("Variant cache %s unwritable (%s): %v", probe.Dir, probe.Reason, probe.Err)
		return c.inMemory(req.Kind, gen.Data, probe.Reason), nil
	}

	err = filesystem.WriteFileAtomic(ctx, probe.Dir, filepath.Base(probe.Path), gen.Data, c.filePerm)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logging.Warn("Failed to persist variant %s: %v", probe.Path, err)
		return c.inMemory(req.Kind, gen.Data, ReasonPersistFailed), nil
	}

	logging.Debug("Variant cached: %s (%dx%d, %d bytes)", probe.Path, gen.Width, gen.Height, len(gen.Data))
	return c.file(req.Kind, probe.Path, ServeFile), nil
}

func (c *Cache) generate(ctx context.Context, paths Paths, kind Kind) (Generated, error) {
	src, err := filesystem.ReadFileWithRetry(paths.Source, c.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Generated{}, newError(ErrNotFound, paths.Rel, err)
		}
		return Generated{}, newError(ErrImage, "read "+paths.Rel, err)
	}

	start := time.Now()
	gen, err := c.gen.Generate(ctx, src, kind)
	c.observer.ObserveGeneration(kind, time.Since(start).Seconds(), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Generated{}, ctxErr
		}
		var ve *Error
		if errors.As(err, &ve) {
			return Generated{}, err
		}
		return Generated{}, newError(ErrImage, paths.Rel, err)
	}
	return gen, nil
}

func (c *Cache) file(kind Kind, path string, outcome Outcome) Rendered {
	c.observer.ObserveOutcome(kind, outcome)
	return FileResult{Path: path, Outcome: outcome}
}

func (c *Cache) inMemory(kind Kind, data []byte, reason UnwritableReason) Rendered {
	c.observer.ObserveDegraded(kind, reason)
	c.observer.ObserveOutcome(kind, ServeInMemory)
	return BytesResult{Data: data, ContentType: ContentType, Reason: reason.String()}
}
