package memory

import "fmt"

// DuplicateError mirrors a unique constraint violation.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Column)
}

func errDuplicate(column string) error {
	return &DuplicateError{Column: column}
}
