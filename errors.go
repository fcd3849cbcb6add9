package astiremux

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrAllocFailed         = errors.New("astiremux: alloc failed")
	ErrCodecCopyFailed     = errors.New("astiremux: codec copy failed")
	ErrFormatNotFound      = errors.New("astiremux: format not found")
	ErrHeaderWriteFailed   = errors.New("astiremux: header write failed")
	ErrInvalidArgument     = errors.New("astiremux: invalid argument")
	ErrNoVideoStream       = errors.New("astiremux: no video stream")
	ErrOpenFailed          = errors.New("astiremux: open failed")
	ErrReadFailed          = errors.New("astiremux: read failed")
	ErrStreamIndexNotFound = errors.New("astiremux: stream index not found")
	ErrTrailerWriteFailed  = errors.New("astiremux: trailer write failed")
	ErrWriteFailed         = errors.New("astiremux: write failed")
)

// Error represents an error of a specific kind that happened during an operation
type Error struct {
	// Underlying error, usually coming from the driver
	Err error
	// One of the ErrXXX kinds
	Kind error
	// Operation that failed
	Op string
}

// NewError creates a new error
func NewError(kind error, err error, format string, args ...interface{}) *Error {
	return &Error{
		Err:  err,
		Kind: kind,
		Op:   fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("astiremux: %s failed: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("astiremux: %s failed: %s", e.Op, e.Err)
}

// Unwrap allows errors.Unwrap to reach the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements the standard error interface
func (e *Error) Is(err error) bool {
	return err == e.Kind
}
