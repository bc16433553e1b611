package variant

// PolicyMode selects where generated variants are persisted.
type PolicyMode int

const (
	// PolicyNormal stores variants beside the source image.
	PolicyNormal PolicyMode = iota
	// PolicyAlternateDirectory stores variants under a separate root that
	// mirrors the source tree.
	PolicyAlternateDirectory
	// PolicyReadOnly never writes; scaled variants are served from memory.
	PolicyReadOnly
)

func (m PolicyMode) String() string {
	switch m {
	case PolicyNormal:
		return "normal"
	case PolicyAlternateDirectory:
		return "alternate-directory"
	case PolicyReadOnly:
		return "read-only"
	default:
		return "unknown"
	}
}

// Policy is the per-request cache policy. Build one with NormalPolicy,
// AlternateDirectoryPolicy, ReadOnlyPolicy or PolicyFor.
type Policy struct {
	Mode PolicyMode
	// Dir is the alternate cache root; only set for PolicyAlternateDirectory.
	Dir string
}

// NormalPolicy caches variants beside their source images.
func NormalPolicy() Policy {
	return Policy{Mode: PolicyNormal}
}

// AlternateDirectoryPolicy caches variants beneath dir.
func AlternateDirectoryPolicy(dir string) Policy {
	return Policy{Mode: PolicyAlternateDirectory, Dir: dir}
}

// ReadOnlyPolicy disables all cache writes.
func ReadOnlyPolicy() Policy {
	return Policy{Mode: PolicyReadOnly}
}

// PolicyFor builds the policy from the server options. readOnly takes
// precedence over thumbsDir.
func PolicyFor(thumbsDir string, readOnly bool) Policy {
	switch {
	case readOnly:
		return ReadOnlyPolicy()
	case thumbsDir != "":
		return AlternateDirectoryPolicy(thumbsDir)
	default:
		return NormalPolicy()
	}
}

func (p Policy) String() string {
	if p.Mode == PolicyAlternateDirectory {
		return p.Mode.String() + "(" + p.Dir + ")"
	}
	return p.Mode.String()
}
