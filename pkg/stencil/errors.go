package stencil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// ErrorCategory classifies a generation failure so the caller can suggest a
// fix ("check the template is valid" versus "check permissions").
type ErrorCategory string

const (
	// CategoryValidation covers blank fields, missing placeholders and bad paths
	CategoryValidation ErrorCategory = "validation"
	// CategoryCollision means the output file already exists
	CategoryCollision ErrorCategory = "collision"
	// CategoryIO covers unreadable or locked files and failed copies or saves
	CategoryIO ErrorCategory = "io"
	// CategoryFormat means the package has no primary part or no body
	CategoryFormat ErrorCategory = "format"
	// CategoryExport covers a failed fixed-layout export
	CategoryExport ErrorCategory = "export"
)

// Issue is a single (category, field, message) entry for the caller to render
type Issue struct {
	Category ErrorCategory
	Field    string
	Message  string
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return i.Message
}

func newIssue(category ErrorCategory, field, format string, args ...interface{}) Issue {
	return Issue{
		Category: category,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// GenerationError reports the issues that stopped a generation request
type GenerationError struct {
	State  State
	Issues []Issue
}

func (e *GenerationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("generation failed in state %s", e.State)
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s error: %s", e.Issues[0].Category, e.Issues[0])
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  [%s] %s", issue.Category, issue))
	}
	return strings.Join(parts, "\n")
}

// Has reports whether any issue belongs to the given category
func (e *GenerationError) Has(category ErrorCategory) bool {
	for _, issue := range e.Issues {
		if issue.Category == category {
			return true
		}
	}
	return false
}

// IsCategory checks if err is a GenerationError carrying an issue of category
func IsCategory(err error, category ErrorCategory) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Has(category)
	}
	return false
}

// classifyPackageError maps a package failure to format or io.
func classifyPackageError(err error) ErrorCategory {
	if errors.Is(err, docx.ErrNotAPackage) || errors.Is(err, docx.ErrEmptyDocument) {
		return CategoryFormat
	}
	return CategoryIO
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

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}
