package workspace

import (
	"errors"
	"fmt"
)

// ErrorClass classifies the fatal errors a workspace build can return.
type ErrorClass string

const (
	// ErrorClassFetch indicates cargo could not be run, exited non-zero, or
	// produced a response that could not be parsed.
	ErrorClassFetch ErrorClass = "fetch"

	// ErrorClassEdition indicates a package declared an edition this model does
	// not recognize. Such a package cannot be compiled correctly downstream.
	ErrorClassEdition ErrorClass = "edition"
)

// Error is a classified, fatal workspace build error. Non-fatal conditions are
// reported as Inconsistency values on the Workspace instead.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// PackageID is the cargo package id that caused the error, if applicable.
	PackageID string `json:"package_id,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.PackageID != "" {
		return fmt.Sprintf("[%s] %s (package=%s): %s", e.Class, e.Message, e.PackageID, e.unwrapMessage())
	}
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Class, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewFetchError creates a new fetch error.
func NewFetchError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassFetch,
		Message: message,
		Code:    ErrCodeFetchFailed,
		Err:     err,
	}
}

// NewEditionParseError creates a new edition parse error.
func NewEditionParseError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassEdition,
		Message: message,
		Code:    ErrCodeEditionParse,
		Err:     err,
	}
}

// WithPackage adds package context to an error.
func (e *Error) WithPackage(packageID string) *Error {
	e.PackageID = packageID
	return e
}

// WithCode sets the error code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsFetchError returns true if the error is classified as a fetch error.
func IsFetchError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassFetch
	}
	return false
}

// IsEditionParseError returns true if the error is classified as an edition parse error.
func IsEditionParseError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassEdition
	}
	return false
}

// classify returns the class and code of err for telemetry labels.
func classify(err error) (string, string) {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Class), e.Code
	}
	return "unknown", ""
}

// Error codes.
const (
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeMetadataInvalid = "METADATA_INVALID"
	ErrCodeCheckFailed     = "CHECK_FAILED"
	ErrCodeEditionParse    = "EDITION_PARSE"
)
