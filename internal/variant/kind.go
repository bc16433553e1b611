package variant

import "fmt"

// Kind selects which rendition of an image is requested.
type Kind int

const (
	// Original is the source file itself, served without scaling.
	Original Kind = iota
	// Thumbnail fits the image into ThumbnailWidth x ThumbnailHeight.
	Thumbnail
	// Preview fits the image into PreviewWidth x PreviewHeight.
	Preview
)

// Bounding boxes for the scaled kinds.
const (
	ThumbnailWidth  = 350
	ThumbnailHeight = 250
	PreviewWidth    = 1920
	PreviewHeight   = 1080
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{Original, Thumbnail, Preview}

// ParseKind maps a wire name ("img", "thumb", "preview") to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "img":
		return Original, nil
	case "thumb":
		return Thumbnail, nil
	case "preview":
		return Preview, nil
	default:
		return Original, newError(ErrBadRequest, fmt.Sprintf("unknown variant %q", name), nil)
	}
}

// Name returns the wire name of the kind. For scaled kinds this is also the
// cache directory name without its leading dot.
func (k Kind) Name() string {
	switch k {
	case Original:
		return "img"
	case Thumbnail:
		return "thumb"
	case Preview:
		return "preview"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) String() string {
	return k.Name()
}

// Bounds returns the bounding box for scaled kinds. ok is false for
// Original, which is never scaled.
func (k Kind) Bounds() (width, height int, ok bool) {
	switch k {
	case Thumbnail:
		return ThumbnailWidth, ThumbnailHeight, true
	case Preview:
		return PreviewWidth, PreviewHeight, true
	default:
		return 0, 0, false
	}
}

// CacheDirName is the hidden directory holding cached variants of this
// kind, e.g. ".thumb".
func (k Kind) CacheDirName() string {
	return "." + k.Name()
}
