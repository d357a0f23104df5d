package docx

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAPackage is returned when a file is not a readable ZIP/XML container.
	ErrNotAPackage = errors.New("not a word-processing package")
	// ErrLocked is returned when the file is held exclusively by another process.
	ErrLocked = errors.New("package is locked by another process")
	// ErrEmptyDocument is returned when the primary part or its body is absent.
	ErrEmptyDocument = errors.New("document has no body")
	// ErrReadOnly is returned by Save on a package opened with ReadOnly.
	ErrReadOnly = errors.New("package was opened read-only")
	// ErrClosed is returned when a closed package is used.
	ErrClosed = errors.New("package is closed")
)

// DocumentError represents an error during a package operation
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

func newDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// notAPackage keeps the underlying reason while matching ErrNotAPackage.
func notAPackage(cause error) error {
	if cause == nil {
		return ErrNotAPackage
	}
	return fmt.Errorf("%w: %v", ErrNotAPackage, cause)
}
