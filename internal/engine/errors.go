package engine

import (
	"errors"
	"fmt"
)

// JobError is a job-level failure. A job that returns a JobError produced
// no usable output.
type JobError struct {
	// Code identifies the error category.
	Code JobErrorCode

	// Message is a human-readable description.
	Message string

	// Source names the export or destination involved, if any.
	Source string

	// Err is the underlying cause.
	Err error
}

// JobErrorCode categorizes job errors.
type JobErrorCode string

const (
	// ErrCodePrecondition indicates the job was rejected before any I/O.
	ErrCodePrecondition JobErrorCode = "PRECONDITION"

	// ErrCodeSourceRead indicates an export could not be opened or read.
	ErrCodeSourceRead JobErrorCode = "SOURCE_READ"

	// ErrCodeDestinationWrite indicates the output could not be written.
	ErrCodeDestinationWrite JobErrorCode = "DESTINATION_WRITE"
)

// Precondition failures.
var (
	ErrNoSources     = &JobError{Code: ErrCodePrecondition, Message: "at least one source is required"}
	ErrNoDestination = &JobError{Code: ErrCodePrecondition, Message: "a destination is required"}
)

// Error implements the error interface.
func (e *JobError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Source != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *JobError) Unwrap() error {
	return e.Err
}

// IsPreconditionError reports whether err rejected a job before it started.
func IsPreconditionError(err error) bool {
	return hasCode(err, ErrCodePrecondition)
}

// IsSourceError reports whether err is a source read failure.
func IsSourceError(err error) bool {
	return hasCode(err, ErrCodeSourceRead)
}

// IsDestinationError reports whether err is a destination write failure.
func IsDestinationError(err error) bool {
	return hasCode(err, ErrCodeDestinationWrite)
}

func hasCode(err error, code JobErrorCode) bool {
	var je *JobError
	if errors.As(err, &je) {
		return je.Code == code
	}
	return false
}

func newSourceError(path string, err error) *JobError {
	return &JobError{
		Code:    ErrCodeSourceRead,
		Message: "cannot read source",
		Source:  path,
		Err:     err,
	}
}

func newDestinationError(name string, err error) *JobError {
	return &JobError{
		Code:    ErrCodeDestinationWrite,
		Message: "cannot write destination",
		Source:  name,
		Err:     err,
	}
}
