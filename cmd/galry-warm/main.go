package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"galry/internal/filesystem"
	"galry/internal/logging"
	"galry/internal/mediatypes"
	"galry/internal/memory"
	"galry/internal/metrics"
	"galry/internal/variant"
	"galry/internal/workers"
)

// options holds the parsed command line.
type options struct {
	rootDir   string
	thumbsDir string
	kinds     []variant.Kind
	workers   int
	backend   string
	textfile  string
}

// summary counts what a warm run did. Fields are updated concurrently.
type summary struct {
	files     atomic.Int64
	failed    atomic.Int64
	generated atomic.Int64
	existing  atomic.Int64
	original  atomic.Int64
	inMemory  atomic.Int64
}

func (s *summary) record(outcome variant.Outcome) {
	switch outcome {
	case variant.ServeFile:
		s.generated.Add(1)
	case variant.ServeExisting:
		s.existing.Add(1)
	case variant.ServeOriginal:
		s.original.Add(1)
	case variant.ServeInMemory:
		s.inMemory.Add(1)
	}
}

func (s *summary) print(w io.Writer, elapsed time.Duration) {
	fmt.Fprintf(w, "Warmed %d images in %v\n", s.files.Load(), elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  generated: %d\n", s.generated.Load())
	fmt.Fprintf(w, "  existing:  %d\n", s.existing.Load())
	fmt.Fprintf(w, "  original:  %d\n", s.original.Load())
	fmt.Fprintf(w, "  in memory: %d\n", s.inMemory.Load())
	fmt.Fprintf(w, "  failed:    %d\n", s.failed.Load())
}

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one warm pass and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	memConfig := memory.ConfigureFromEnv()
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	gen, cleanup, err := variant.NewGenerator(opts.backend, memConfig.MaxSourcePixels())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"root":   opts.rootDir,
		"thumbs": opts.thumbsDir,
	}))

	cache := variant.New(gen)
	policy := variant.PolicyFor(opts.thumbsDir, false)

	start := time.Now()
	sum, err := warm(ctx, cache, monitor, opts, policy)
	sum.print(stdout, time.Since(start))

	metrics.WarmFilesTotal.WithLabelValues("ok").Add(float64(sum.files.Load() - sum.failed.Load()))
	metrics.WarmFilesTotal.WithLabelValues("failed").Add(float64(sum.failed.Load()))
	if opts.textfile != "" {
		if werr := prometheus.WriteToTextfile(opts.textfile, prometheus.DefaultGatherer); werr != nil {
			fmt.Fprintf(stderr, "Warning: failed to write metrics to %s: %v\n", opts.textfile, werr)
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if sum.failed.Load() > 0 {
		return 1
	}
	return 0
}

func parseOptions(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	var kinds []string

	flags := pflag.NewFlagSet("galry-warm", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.SortFlags = false
	flags.StringVar(&opts.rootDir, "root-dir", os.Getenv("GALRY_ROOT_DIR"),
		"directory tree of albums to warm (env GALRY_ROOT_DIR, or first argument)")
	flags.StringVar(&opts.thumbsDir, "thumbs-dir", os.Getenv("GALRY_THUMBS_DIR"),
		"store cached variants under this directory instead of beside the images (env GALRY_THUMBS_DIR)")
	flags.StringSliceVar(&kinds, "kinds", []string{variant.Thumbnail.Name(), variant.Preview.Name()},
		"variants to generate: thumb, preview")
	flags.IntVarP(&opts.workers, "workers", "j", 0,
		"parallel generations, 0 sizes to the CPU limit (env "+workers.EnvOverride+")")
	flags.StringVar(&opts.backend, "image-backend", variant.BackendImaging,
		"image scaling backend: imaging or vips")
	flags.StringVar(&opts.textfile, "textfile", "",
		"write run metrics to this node_exporter textfile")
	flags.Usage = func() {
		fmt.Fprintf(output, "Usage: galry-warm [flags] [ROOT_DIR]\n\n")
		fmt.Fprintf(output, "Pre-generates cached thumbnails and previews for every image under ROOT_DIR.\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	rest := flags.Args()
	if opts.rootDir == "" && len(rest) > 0 {
		opts.rootDir, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	if opts.rootDir == "" {
		return nil, errors.New("root directory is required (--root-dir or GALRY_ROOT_DIR)")
	}

	root, err := filepath.Abs(opts.rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root directory: %w", err)
	}
	opts.rootDir = root
	if opts.thumbsDir != "" {
		thumbs, err := filepath.Abs(opts.thumbsDir)
		if err != nil {
			return nil, fmt.Errorf("resolving thumbs directory: %w", err)
		}
		opts.thumbsDir = thumbs
	}

	opts.kinds, err = parseKinds(kinds)
	if err != nil {
		return nil, err
	}

	switch opts.backend {
	case variant.BackendImaging, variant.BackendVips:
	default:
		return nil, fmt.Errorf("unknown image backend %q", opts.backend)
	}

	return opts, nil
}

// parseKinds accepts scaled kinds only; originals have nothing to warm.
func parseKinds(names []string) ([]variant.Kind, error) {
	var kinds []variant.Kind
	seen := make(map[variant.Kind]bool)
	for _, name := range names {
		kind, err := variant.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("--kinds: %s", variant.Detail(err))
		}
		if _, _, ok := kind.Bounds(); !ok {
			return nil, fmt.Errorf("--kinds: %q is not a scaled variant", name)
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, errors.New("--kinds: at least one variant is required")
	}
	return kinds, nil
}

// warm walks the root and requests every kind of every image. Failures on
// single files are logged and counted; only cancellation or an unreadable
// root stops the walk. New files wait while monitor reports memory pressure.
func warm(ctx context.Context, cache *variant.Cache, monitor *memory.Monitor, opts *options, policy variant.Policy) (*summary, error) {
	sum := &summary{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.Resolve(opts.workers, 0))

	walkErr := filepath.WalkDir(opts.rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == opts.rootDir {
				return err
			}
			logging.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != opts.rootDir && skipDir(d.Name(), path, opts.thumbsDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") || !mediatypes.IsImage(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(opts.rootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		g.Go(func() error {
			if monitor.Wait(gctx) != nil {
				return nil
			}
			warmFile(gctx, cache, opts, policy, rel, sum)
			return nil
		})
		return nil
	})

	// Workers never fail the group, so Wait only drains it.
	_ = g.Wait()
	if walkErr != nil {
		return sum, walkErr
	}
	return sum, ctx.Err()
}

func warmFile(ctx context.Context, cache *variant.Cache, opts *options, policy variant.Policy, rel string, sum *summary) {
	failed := false
	for _, kind := range opts.kinds {
		if ctx.Err() != nil {
			return
		}
		result, err := cache.Get(ctx, variant.Request{
			Root:   opts.rootDir,
			Path:   rel,
			Kind:   kind,
			Policy: policy,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logging.Error("%s %s: %v", kind, rel, err)
			failed = true
			continue
		}
		sum.record(variant.OutcomeOf(result))
		logging.Debug("%s %s: %s", kind, rel, variant.OutcomeOf(result))
	}
	sum.files.Add(1)
	if failed {
		sum.failed.Add(1)
	}
}

// skipDir reports whether the walk should not descend into a directory.
func skipDir(name, path, thumbsDir string) bool {
	if strings.HasPrefix(name, ".") || strings.EqualFold(name, "lost+found") {
		return true
	}
	return thumbsDir != "" && path == thumbsDir
}
