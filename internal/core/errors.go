package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transformation pipeline. The typed errors below
// unwrap to these, so callers can test with errors.Is.
var (
	// ErrMalformedInput is returned when JSON text input cannot be decoded.
	ErrMalformedInput = errors.New("malformed input")

	// ErrLookupResolution is returned when the lookup collaborator fails.
	ErrLookupResolution = errors.New("lookup resolution failed")

	// ErrFormatter marks a per-item formatter failure.
	ErrFormatter = errors.New("formatter failed")

	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("invalid options")
)

// MalformedInputError reports undecodable JSON text. Fatal to the whole call.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedInput, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}

// LookupResolutionError reports a failing lookup collaborator.
// Fatal to the whole call; no partial output is produced.
type LookupResolutionError struct {
	Key    string
	Source string
	Err    error
}

func (e *LookupResolutionError) Error() string {
	return fmt.Sprintf("%s for %q (source %q): %v", ErrLookupResolution, e.Key, e.Source, e.Err)
}

func (e *LookupResolutionError) Unwrap() []error {
	return []error{ErrLookupResolution, e.Err}
}

// FormatterError reports a failing caller-supplied formatter.
// It aborts only the record of the item being transformed.
type FormatterError struct {
	Key string
	Err error
}

func (e *FormatterError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrFormatter, e.Key, e.Err)
}

func (e *FormatterError) Unwrap() []error {
	return []error{ErrFormatter, e.Err}
}
