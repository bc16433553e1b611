package variant

import (
	"errors"
	"fmt"
)

// Error classes. Match them with errors.Is.
var (
	// ErrBadRequest marks malformed requests: unknown variant names, path
	// traversal, hidden path segments.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound marks requests whose source image does not exist.
	ErrNotFound = errors.New("not found")
	// ErrImage marks source files that exist but cannot be decoded or
	// re-encoded.
	ErrImage = errors.New("image error")
)

// Error is a classified failure returned by Cache.Get.
type Error struct {
	// Class is one of ErrBadRequest, ErrNotFound or ErrImage.
	Class  error
	Detail string
	Err    error
}

func newError(class error, detail string, err error) *Error {
	return &Error{Class: class, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Class, e.Detail, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Class, e.Detail)
}

// Unwrap exposes both the class and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Err}
}

// Wire labels returned by Classify.
const (
	LabelBadRequest = "bad_request"
	LabelNotFound   = "not_found"
	LabelImageError = "image_error"
	LabelInternal   = "internal"
)

// Classify returns the wire label for an error returned by Cache.Get.
// Errors outside the taxonomy, such as context cancellation, are
// LabelInternal.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return LabelBadRequest
	case errors.Is(err, ErrNotFound):
		return LabelNotFound
	case errors.Is(err, ErrImage):
		return LabelImageError
	default:
		return LabelInternal
	}
}

// Detail returns the human-readable detail of a classified error, or the
// error text for anything else.
func Detail(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Detail
	}
	return err.Error()
}
