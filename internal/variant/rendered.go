package variant

// OutcomeHeader is the response header carrying Outcome.String() for
// variant requests.
const OutcomeHeader = "X-Variant-Outcome"

// Outcome records which terminal state produced a Rendered value.
type Outcome int

const (
	// ServeOriginal streams the unscaled source file.
	ServeOriginal Outcome = iota
	// ServeExisting streams a cache file that was already on disk.
	ServeExisting
	// ServeFile streams a cache file written by this request.
	ServeFile
	// ServeInMemory returns encoded bytes that were not persisted.
	ServeInMemory
)

func (o Outcome) String() string {
	switch o {
	case ServeOriginal:
		return "original"
	case ServeExisting:
		return "existing"
	case ServeFile:
		return "generated"
	case ServeInMemory:
		return "in_memory"
	default:
		return "unknown"
	}
}

// Rendered is the result of Cache.Get. It is either a FileResult or a
// BytesResult; callers type-switch on the concrete value.
type Rendered interface {
	rendered()
}

// FileResult is a complete image file on disk. Callers stream it and derive
// the content type from its extension.
type FileResult struct {
	Path    string
	Outcome Outcome
}

// BytesResult is an encoded image held in memory.
type BytesResult struct {
	Data        []byte
	ContentType string
	// Reason says why the bytes were not persisted.
	Reason string
}

func (FileResult) rendered()  {}
func (BytesResult) rendered() {}

// OutcomeOf reports the terminal state that produced r.
func OutcomeOf(r Rendered) Outcome {
	switch v := r.(type) {
	case FileResult:
		return v.Outcome
	case BytesResult:
		return ServeInMemory
	default:
		panic("variant: unknown Rendered type")
	}
}
