package filter

import (
	"errors"
	"fmt"
)

// Kind classifies numerical failures.
type Kind int

const (
	// NotPSD means a covariance matrix is not positive semi-definite
	NotPSD Kind = iota + 1
	// Singular means a matrix is singular or too ill-conditioned to solve with
	Singular
	// InvalidConfig means configuration or dimensions are unusable
	InvalidConfig
)

var (
	// ErrNotPSD matches a NumericalError of kind NotPSD
	ErrNotPSD = errors.New("matrix not positive semi-definite")
	// ErrSingular matches a NumericalError of kind Singular
	ErrSingular = errors.New("matrix singular or ill-conditioned")
	// ErrInvalidConfig matches a NumericalError of kind InvalidConfig
	ErrInvalidConfig = errors.New("invalid configuration")
)

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case NotPSD:
		return "not positive semi-definite"
	case Singular:
		return "singular"
	case InvalidConfig:
		return "invalid configuration"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// NumericalError is returned whenever the filter refuses to continue
// because of a numerical or configuration problem.
type NumericalError struct {
	// Op is the operation which failed
	Op string
	// Kind classifies the failure
	Kind Kind
	// Err is the underlying cause, if any
	Err error
}

// NewNumericalError returns a NumericalError with the cause formatted from format and args.
func NewNumericalError(op string, kind Kind, format string, args ...interface{}) *NumericalError {
	return &NumericalError{
		Op:   op,
		Kind: kind,
		Err:  fmt.Errorf(format, args...),
	}
}

// Error implements the error interface.
func (e *NumericalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NumericalError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error matching e's Kind.
func (e *NumericalError) Is(target error) bool {
	switch target {
	case ErrNotPSD:
		return e.Kind == NotPSD
	case ErrSingular:
		return e.Kind == Singular
	case ErrInvalidConfig:
		return e.Kind == InvalidConfig
	}
	return false
}
