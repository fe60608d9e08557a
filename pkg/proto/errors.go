package proto

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies failures of the rendering pipeline.
type Kind int

const (
	// KindConfiguration: unsupported pixel format, non-grayscale panel,
	// invalid resolution or unknown hardware identifier.
	KindConfiguration Kind = iota + 1
	// KindResource: mapping or allocation failure.
	KindResource
	// KindRange: page, orientation or region index out of bounds.
	KindRange
	// KindBackend: the page sample source failed.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResource:
		return "resource"
	case KindRange:
		return "range"
	case KindBackend:
		return "backend"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause reach the backend's original error.
func (e *Error) Cause() error {
	return e.Err
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func ConfigurationError(op string, format string, args ...any) error {
	return newError(KindConfiguration, op, errors.Errorf(format, args...))
}

func ResourceError(op string, err error) error {
	return newError(KindResource, op, err)
}

func RangeError(op string, format string, args ...any) error {
	return newError(KindRange, op, errors.Errorf(format, args...))
}

// BackendError wraps a sample source failure. The original error stays
// reachable through errors.Is / errors.As / errors.Cause.
func BackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	return newError(KindBackend, op, err)
}

// KindOf returns the kind of the first classified error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
func IsResource(err error) bool      { return KindOf(err) == KindResource }
func IsRange(err error) bool         { return KindOf(err) == KindRange }
func IsBackend(err error) bool       { return KindOf(err) == KindBackend }
