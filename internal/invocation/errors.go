package invocation

import (
	"errors"
	"fmt"
)

// Kind classifies why a set of parameters was rejected.
type Kind int

const (
	MissingInput Kind = iota + 1
	MissingOutput
	SizeOverflow
	InvalidGeometry
	OutputExists
)

func (k Kind) String() string {
	switch k {
	case MissingInput:
		return "missing input"
	case MissingOutput:
		return "missing output"
	case SizeOverflow:
		return "size overflow"
	case InvalidGeometry:
		return "invalid geometry"
	case OutputExists:
		return "output exists"
	default:
		return "unknown"
	}
}

var (
	ErrMissingInput    = &ValidationError{Kind: MissingInput}
	ErrMissingOutput   = &ValidationError{Kind: MissingOutput}
	ErrSizeOverflow    = &ValidationError{Kind: SizeOverflow}
	ErrInvalidGeometry = &ValidationError{Kind: InvalidGeometry}
	ErrOutputExists    = &ValidationError{Kind: OutputExists}

	ErrToolNotFound = errors.New("invocation: image tool not found")
)

// ValidationError is returned by the builders before anything is spawned.
type ValidationError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches any ValidationError of the same kind, so the package sentinels
// work with errors.Is.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// KindOf reports the validation kind carried by err, or 0.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return 0
}
