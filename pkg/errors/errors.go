package errors

import (
	"fmt"
	"strings"
)

// ValidationError represents a recoverable publish validation failure raised
// by a plugin before the validation boundary. Blocking errors always halt a
// run; non-blocking errors halt only in interactive sessions.
type ValidationError struct {
	Title       string
	Description string
	Detail      string
	Blocking    bool
	Err         error
}

// NewValidationError constructs a blocking ValidationError.
func NewValidationError(title, description string) *ValidationError {
	return &ValidationError{Title: title, Description: description, Blocking: true}
}

// NewWarning constructs a non-blocking ValidationError.
func NewWarning(title, description string) *ValidationError {
	return &ValidationError{Title: title, Description: description}
}

// WithDetail attaches long-form detail text shown in the error report.
func (e *ValidationError) WithDetail(detail string) *ValidationError {
	e.Detail = detail
	return e
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Title != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Title, e.Description)
	}
	return fmt.Sprintf("validation error: %s", e.Description)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KnownError is a recognized publish failure whose message is safe to show
// to the artist verbatim. Any other error raised by a plugin crashes the run
// with a generic message instead.
type KnownError struct {
	Message string
	Err     error
}

// NewKnownError constructs a KnownError.
func NewKnownError(message string, err error) error {
	return &KnownError{Message: message, Err: err}
}

func (e *KnownError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the underlying error.
func (e *KnownError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError describes a failure while reading or decoding a configuration
// file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	return &ParseError{Path: path, Line: line, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigValidationError describes an invalid configuration field.
type ConfigValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigValidationError constructs a ConfigValidationError.
func NewConfigValidationError(field, message string, err error) error {
	return &ConfigValidationError{Field: field, Message: message, Err: err}
}

func (e *ConfigValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ItemFailure describes one failed item inside a batch creator or convertor
// operation.
type ItemFailure struct {
	Identifier string
	Message    string
	Err        error
}

// OperationFailedError aggregates per-item failures from one bulk mutation so
// a single failing creator does not abort the whole batch. The run is never
// crashed by these; they surface as a single notification.
type OperationFailedError struct {
	Operation string
	Failures  []ItemFailure
}

// NewOperationFailedError constructs an OperationFailedError.
func NewOperationFailedError(operation string, failures []ItemFailure) error {
	return &OperationFailedError{Operation: operation, Failures: failures}
}

func (e *OperationFailedError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", failure.Identifier, failure.Message))
	}
	return fmt.Sprintf("operation %q failed: %s", e.Operation, strings.Join(parts, "; "))
}

// FailedInfo returns the per-item breakdown as event payload data.
func (e *OperationFailedError) FailedInfo() []map[string]any {
	if e == nil {
		return nil
	}
	info := make([]map[string]any, 0, len(e.Failures))
	for _, failure := range e.Failures {
		item := map[string]any{
			"identifier": failure.Identifier,
			"message":    failure.Message,
		}
		if failure.Err != nil {
			item["error"] = failure.Err.Error()
		}
		info = append(info, item)
	}
	return info
}
