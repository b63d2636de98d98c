package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RootNotFound indicates the graph has no node with in-degree 0
	RootNotFound ErrorCode = "ROOT_NOT_FOUND"
	// RootAmbiguous indicates the graph has more than one node with in-degree 0
	RootAmbiguous ErrorCode = "ROOT_AMBIGUOUS"
	// NotArborescence indicates the graph violates the single-rooted tree invariant
	NotArborescence ErrorCode = "GRAPH_NOT_ARBORESCENCE"
	// GraphFileNotFound indicates no graph file exists for a patient or path
	GraphFileNotFound ErrorCode = "GRAPH_FILE_NOT_FOUND"
	// GraphFileInvalid indicates a graph file could not be parsed
	GraphFileInvalid ErrorCode = "GRAPH_FILE_INVALID"
	// ScoreUnknown indicates an unrecognized score name
	ScoreUnknown ErrorCode = "SCORE_UNKNOWN"
	// ModeInvalid indicates a Mastora mode string with characters outside {m,l,s}
	ModeInvalid ErrorCode = "MODE_INVALID"
	// ThresholdInvalid indicates obstruction thresholds outside [0,1] or min > max
	ThresholdInvalid ErrorCode = "THRESHOLD_INVALID"
	// ClinicalDataInvalid indicates the clinical CSV is missing or malformed
	ClinicalDataInvalid ErrorCode = "CLINICAL_DATA_INVALID"
	// StorageFailure indicates the score database could not be opened or written
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ScoreError represents a graphscore error with a stable code and message
type ScoreError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new ScoreError
func New(code ErrorCode, message string) *ScoreError {
	return &ScoreError{Code: code, Message: message}
}

// Newf creates a new ScoreError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ScoreError {
	return &ScoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new ScoreError around an underlying cause
func Wrap(code ErrorCode, message string, cause error) *ScoreError {
	return &ScoreError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *ScoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ScoreError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ScoreError) WithDetails(details interface{}) *ScoreError {
	e.Details = details
	return e
}

// CodeOf returns the stable code carried by err, unwrapping as needed,
// or InternalError for errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	var se *ScoreError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// IsStructural reports whether err describes a violated tree invariant.
func IsStructural(err error) bool {
	switch CodeOf(err) {
	case RootNotFound, RootAmbiguous, NotArborescence:
		return true
	}
	return false
}
