package extract

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrReadFailure       = errors.New("read failure")
	ErrExtractionFailure = errors.New("extraction failure")
)

// Error reports why text could not be pulled out of a document. Kind is
// one of the package sentinels and can be tested with errors.Is.
type Error struct {
	Kind     error
	Filename string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Filename, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Filename, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a stable machine-readable name for err's kind, or ""
// when err did not come from this package.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrReadFailure):
		return "read_failure"
	case errors.Is(err, ErrExtractionFailure):
		return "extraction_failure"
	default:
		return ""
	}
}

func newError(kind error, filename string, err error) *Error {
	return &Error{Kind: kind, Filename: filename, Err: err}
}
