// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrInventoryNotLoaded is returned when a build or load has no inventory document to work on.
var ErrInventoryNotLoaded = stderrors.New("inventory not loaded")

// Error codes
const (
	ErrCodeMalformedRecord = "MALFORMED_RECORD"
	ErrCodeMissingCategory = "MISSING_CATEGORY"
	ErrCodePersistFailed   = "PERSIST_FAILED"
)

// RecordError is a structured error tied to one inventory record.
type RecordError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Index       int      `json:"index"`
	ResourceID  string   `json:"resource_id,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *RecordError) Error() string {
	if e.ResourceID != "" {
		return fmt.Sprintf("[%s] %s: %s (%s[%d], resource: %s)", e.Severity, e.Code, e.Message, e.Category, e.Index, e.ResourceID)
	}
	return fmt.Sprintf("[%s] %s: %s (%s[%d])", e.Severity, e.Code, e.Message, e.Category, e.Index)
}

// NewMalformedRecordError creates a warning for a record that is missing a required field.
// The record is skipped and the build continues.
func NewMalformedRecordError(category string, index int, resourceID, field string) *RecordError {
	return &RecordError{
		Code:        ErrCodeMalformedRecord,
		Message:     fmt.Sprintf("Missing required field: %s", field),
		Severity:    SeverityWarning,
		Category:    category,
		Index:       index,
		ResourceID:  resourceID,
		Recoverable: true,
	}
}

// NewMissingCategoryError creates an informational error for an absent inventory section.
func NewMissingCategoryError(category string) *RecordError {
	return &RecordError{
		Code:        ErrCodeMissingCategory,
		Message:     "Category absent from inventory, treated as empty",
		Severity:    SeverityInfo,
		Category:    category,
		Index:       -1,
		Recoverable: true,
	}
}

// PersistError wraps a failed graph write. It is always fatal.
type PersistError struct {
	Location string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %v", SeverityFatal, ErrCodePersistFailed, e.Location, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// NewPersistError wraps err with the location that could not be written.
func NewPersistError(location string, err error) *PersistError {
	return &PersistError{Location: location, Err: err}
}

// IsNotLoaded reports whether err signals a missing inventory document.
func IsNotLoaded(err error) bool {
	return stderrors.Is(err, ErrInventoryNotLoaded)
}
