package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the elevation pipeline.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidPath
	KindUnsupportedConversion
	KindConversionFailure
	KindOutOfCoverage
	KindProviderError
	KindNoValidData
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidPath:
		return "invalid_path"
	case KindUnsupportedConversion:
		return "unsupported_conversion"
	case KindConversionFailure:
		return "conversion_failure"
	case KindOutOfCoverage:
		return "out_of_coverage"
	case KindProviderError:
		return "provider_error"
	case KindNoValidData:
		return "no_valid_data"
	}
	return "unknown"
}

// ElevationError is the single error type surfaced by converters, providers
// and the elevation service. Callers match on Kind through errors.Is.
type ElevationError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds an ElevationError.
func NewError(kind ErrorKind, op string, err error) *ElevationError {
	return &ElevationError{Kind: kind, Op: op, Err: err}
}

func (e *ElevationError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ElevationError) Unwrap() error { return e.Err }

// Is matches any *ElevationError of the same kind.
func (e *ElevationError) Is(target error) bool {
	var t *ElevationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidPath           = &ElevationError{Kind: KindInvalidPath}
	ErrUnsupportedConversion = &ElevationError{Kind: KindUnsupportedConversion}
	ErrConversionFailure     = &ElevationError{Kind: KindConversionFailure}
	ErrOutOfCoverage         = &ElevationError{Kind: KindOutOfCoverage}
	ErrProviderError         = &ElevationError{Kind: KindProviderError}
	ErrNoValidData           = &ElevationError{Kind: KindNoValidData}
)

// KindOf returns the kind of the first ElevationError in err's chain.
func KindOf(err error) ErrorKind {
	var e *ElevationError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ProviderErrorf is shorthand for a KindProviderError with a formatted cause.
func ProviderErrorf(op, format string, args ...any) *ElevationError {
	return NewError(KindProviderError, op, fmt.Errorf(format, args...))
}
