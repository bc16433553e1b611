package variant

import (
	"os"
	"path/filepath"
	"strings"

	"galry/internal/filesystem"
)

// Paths is the outcome of resolving a request against the filesystem.
type Paths struct {
	// Source is the absolute path of the source image.
	Source string
	// Rel is the cleaned relative path of the source image.
	Rel string
	// CacheDir and Candidate are empty when the request can never be
	// cached (Original kind or read-only policy).
	CacheDir  string
	Candidate string
}

// HasCandidate reports whether a cache location was computed.
func (p Paths) HasCandidate() bool {
	return p.Candidate != ""
}

// PathResolver maps requests to source and cache paths.
type PathResolver struct {
	retry filesystem.RetryConfig
}

// NewPathResolver returns a resolver that stats sources with the given
// retry configuration.
func NewPathResolver(retry filesystem.RetryConfig) *PathResolver {
	return &PathResolver{retry: retry}
}

// Resolve validates rel, checks that root/rel exists, and computes where a
// variant of that image is cached under policy.
//
// rel is slash-separated. Segments equal to ".." and hidden segments
// (leading dot) are rejected with ErrBadRequest before the filesystem is
// touched; hidden names are reserved for cache directories and temporary
// files.
func (r *PathResolver) Resolve(root, rel string, kind Kind, policy Policy) (Paths, error) {
	clean, err := cleanRelative(rel)
	if err != nil {
		return Paths{}, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, newError(ErrNotFound, "root directory", err)
	}

	source := filepath.Join(absRoot, clean)
	info, err := filesystem.StatWithRetry(source, r.retry)
	if err != nil {
		return Paths{}, newError(ErrNotFound, clean, err)
	}
	if info.IsDir() {
		return Paths{}, newError(ErrBadRequest, clean+" is a directory", nil)
	}

	paths := Paths{Source: source, Rel: clean}
	if _, _, scaled := kind.Bounds(); !scaled {
		return paths, nil
	}

	switch policy.Mode {
	case PolicyNormal:
		paths.CacheDir = filepath.Join(filepath.Dir(source), kind.CacheDirName())
	case PolicyAlternateDirectory:
		base, err := filepath.Abs(policy.Dir)
		if err != nil {
			return paths, nil
		}
		paths.CacheDir = filepath.Join(base, filepath.Dir(clean), kind.CacheDirName())
	default:
		return paths, nil
	}
	paths.Candidate = filepath.Join(paths.CacheDir, filepath.Base(source))

	return paths, nil
}

// CleanPath validates a slash-separated path relative to the root with the
// same rules Resolve applies and returns it in OS form. An empty path is
// rejected with ErrBadRequest.
func CleanPath(rel string) (string, error) {
	return cleanRelative(rel)
}

// cleanRelative validates a slash-separated relative path and returns it in
// OS form. Empty segments are ignored.
func cleanRelative(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", newError(ErrBadRequest, "path contains NUL byte", nil)
	}

	segments := make([]string, 0, strings.Count(rel, "/")+1)
	for _, seg := range strings.Split(rel, "/") {
		switch {
		case seg == "":
			continue
		case seg == "..":
			return "", newError(ErrBadRequest, "path traversal in "+rel, nil)
		case strings.HasPrefix(seg, "."):
			return "", newError(ErrBadRequest, "hidden path segment "+seg, nil)
		case strings.ContainsRune(seg, os.PathSeparator):
			return "", newError(ErrBadRequest, "invalid path segment "+seg, nil)
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return "", newError(ErrBadRequest, "empty path", nil)
	}
	return filepath.Join(segments...), nil
}
