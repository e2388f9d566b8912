package rrepr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid sampling or rendering settings,
	// e.g. a non-positive sample size
	ErrConfiguration = errors.New("configuration error")
	// ErrStructuralInconsistency is returned when an array's declared
	// dimensions disagree with its shape or with the container's dimension sizes
	ErrStructuralInconsistency = errors.New("structural inconsistency")
	// ErrUnsupportedValueKind is returned when a value has no literal formatting rule
	ErrUnsupportedValueKind = errors.New("unsupported value kind")
)

// VariableError attributes a failure to a named coordinate or data variable.
// Unwrap yields one of the package's sentinel errors.
type VariableError struct {
	Name   string
	Detail string
	Err    error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%s: variable %q: %s", e.Err, e.Name, e.Detail)
}

func (e *VariableError) Unwrap() error { return e.Err }

func inconsistent(name, format string, args ...interface{}) error {
	return &VariableError{Name: name, Detail: fmt.Sprintf(format, args...), Err: ErrStructuralInconsistency}
}

func unsupported(name, format string, args ...interface{}) error {
	return &VariableError{Name: name, Detail: fmt.Sprintf(format, args...), Err: ErrUnsupportedValueKind}
}
