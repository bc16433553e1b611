package variant

import (
	"fmt"
	"os"
	"path/filepath"

	"galry/internal/filesystem"
)

// CacheState classifies a candidate cache path.
type CacheState int

const (
	// StateHit means the candidate file exists and can be served.
	StateHit CacheState = iota
	// StateMissWritable means the candidate is absent and its directory
	// exists and is writable.
	StateMissWritable
	// StateMissUnwritable means the candidate is absent and cannot be
	// written. It is an expected outcome, not an error.
	StateMissUnwritable
)

func (s CacheState) String() string {
	switch s {
	case StateHit:
		return "hit"
	case StateMissWritable:
		return "miss_writable"
	case StateMissUnwritable:
		return "miss_unwritable"
	default:
		return "unknown"
	}
}

// UnwritableReason explains a StateMissUnwritable result.
type UnwritableReason int

const (
	ReasonNone UnwritableReason = iota
	// ReasonNoCandidate: the policy forbids writes.
	ReasonNoCandidate
	// ReasonMkdirFailed: the cache directory was missing and could not be
	// created.
	ReasonMkdirFailed
	// ReasonNotDirectory: the cache directory path exists but is not a
	// directory.
	ReasonNotDirectory
	// ReasonPermission: the directory's permission bits deny writing.
	ReasonPermission
	// ReasonPersistFailed: the directory looked writable but the write
	// itself failed.
	ReasonPersistFailed
	// ReasonCandidateNotFile: something other than a regular file occupies
	// the candidate path.
	ReasonCandidateNotFile
)

func (r UnwritableReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoCandidate:
		return "read_only"
	case ReasonMkdirFailed:
		return "mkdir_failed"
	case ReasonNotDirectory:
		return "not_directory"
	case ReasonPermission:
		return "permission"
	case ReasonPersistFailed:
		return "persist_failed"
	case ReasonCandidateNotFile:
		return "candidate_not_file"
	default:
		return "unknown"
	}
}

// ProbeResult is the outcome of CacheProbe.Probe.
type ProbeResult struct {
	State CacheState
	// Path is the candidate path.
	Path string
	// Dir is the candidate's directory.
	Dir string
	// Reason and Err describe a StateMissUnwritable result.
	Reason UnwritableReason
	Err    error
}

// CacheProbe inspects candidate cache paths.
type CacheProbe struct {
	retry   filesystem.RetryConfig
	dirPerm os.FileMode
}

// NewCacheProbe returns a probe that creates missing cache directories with
// dirPerm.
func NewCacheProbe(retry filesystem.RetryConfig, dirPerm os.FileMode) *CacheProbe {
	return &CacheProbe{retry: retry, dirPerm: dirPerm}
}

// Lookup reports whether candidate already holds a cached variant. It never
// creates anything.
func (p *CacheProbe) Lookup(candidate string) bool {
	info, err := filesystem.StatWithRetry(candidate, p.retry)
	return err == nil && info.Mode().IsRegular()
}

// Probe classifies candidate. On a miss it makes sure the parent directory
// exists, creating it and any intermediate directories when needed, and
// checks that it is writable. Each failing step maps to its own
// UnwritableReason.
func (p *CacheProbe) Probe(candidate string) ProbeResult {
	dir := filepath.Dir(candidate)
	res := ProbeResult{Path: candidate, Dir: dir}

	unwritable := func(reason UnwritableReason, err error) ProbeResult {
		res.State = StateMissUnwritable
		res.Reason = reason
		res.Err = err
		return res
	}

	if info, err := filesystem.StatWithRetry(candidate, p.retry); err == nil {
		if info.Mode().IsRegular() {
			res.State = StateHit
			return res
		}
		return unwritable(ReasonCandidateNotFile, fmt.Errorf("%s is %s, not a regular file", candidate, info.Mode().Type()))
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		// Concurrent creators are fine: MkdirAll succeeds when the
		// directory ends up existing.
		if err := os.MkdirAll(dir, p.dirPerm); err != nil {
			return unwritable(ReasonMkdirFailed, err)
		}
		info, err = os.Stat(dir)
	}
	if err != nil {
		return unwritable(ReasonMkdirFailed, err)
	}
	if !info.IsDir() {
		return unwritable(ReasonNotDirectory, fmt.Errorf("%s is not a directory", dir))
	}
	if info.Mode().Perm()&0o222 == 0 {
		return unwritable(ReasonPermission, fmt.Errorf("%s has no write permission bits", dir))
	}
	if err := checkWritable(dir); err != nil {
		return unwritable(ReasonPermission, err)
	}

	res.State = StateMissWritable
	return res
}
