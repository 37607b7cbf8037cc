package dispatch

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMissingValue marks a record that had no value. It is only ever
	// reported through a Diagnostic.
	ErrMissingValue = errors.New("dispatch: value not found")
	// ErrTransformation matches every *TransformationError.
	ErrTransformation = errors.New("dispatch: transformation failed")

	errNotString = errors.New("value is not a string")
	errNotNumber = errors.New("value is not numeric")
)

// TransformationError reports a record whose value could not be transformed
// under its declared kind.
type TransformationError struct {
	Index int
	Kind  Kind
	Value any
	Err   error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("dispatch: item %d (%s): %v: %#v", e.Index, e.Kind, e.Err, e.Value)
}

func (e *TransformationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransformation.
func (e *TransformationError) Is(target error) bool { return target == ErrTransformation }
