package mailmerge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by every operation on a closed Document.
	ErrClosed = errors.New("document is closed")
	// ErrNoPageCount is returned when the package carries no usable
	// pre-computed page count in its extended properties.
	ErrNoPageCount = errors.New("document has no page count property")
	// ErrStructureMismatch marks a field or bookmark whose markup does not
	// have the shape the merge needs.
	ErrStructureMismatch = errors.New("structure mismatch")
	// ErrUnsupportedTableShape marks a table region whose start and end
	// fields are not in the same table row.
	ErrUnsupportedTableShape = errors.New("unsupported table shape")
	// ErrMissingTableRegion marks a table region that cannot be found. It
	// is only reported in strict mode.
	ErrMissingTableRegion = errors.New("missing table region")
)

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// StructureError reports markup that cannot be merged: a complex field
// missing one of its field-character runs, or a bookmark whose end marker
// cannot be reached.
type StructureError struct {
	// Construct is "field" or "bookmark"
	Construct string
	// Name is the field key or bookmark name
	Name    string
	Message string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("malformed %s '%s': %s", e.Construct, e.Name, e.Message)
}

func (e *StructureError) Unwrap() error {
	return ErrStructureMismatch
}

// NewStructureError creates a new structure error
func NewStructureError(construct, name, message string) error {
	return &StructureError{
		Construct: construct,
		Name:      name,
		Message:   message,
	}
}

// TableShapeError reports a table region that cannot be expanded
type TableShapeError struct {
	Table   string
	Message string
	// Kind is ErrUnsupportedTableShape or ErrMissingTableRegion
	Kind error
}

func (e *TableShapeError) Error() string {
	return fmt.Sprintf("table '%s': %s", e.Table, e.Message)
}

func (e *TableShapeError) Unwrap() error {
	return e.Kind
}

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError represents multiple validation issues
type ValidationError struct {
	Issues []ValidationIssue
}

// Add records an issue
func (e *ValidationError) Add(field, message string) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: message})
}

// Err returns e, or nil when no issue was recorded
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// WithContext wraps an error with the operation that failed
func WithContext(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// IsDocumentError checks if an error is a document error
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// IsStructureError checks if an error is a structure error
func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}

// IsTableShapeError checks if an error is a table shape error
func IsTableShapeError(err error) bool {
	var te *TableShapeError
	return errors.As(err, &te)
}
