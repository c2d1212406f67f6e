package graphstore

import (
	"errors"
	"fmt"
)

// NotFoundError reports that the primary subject of an operation does not
// exist. It is distinct from the silent dropping of stale candidate ids
// inside best-effort lists: it applies to the entity the caller named
// directly, not to items within a bulk edit.
type NotFoundError struct {
	Kind string // "task", "template", "period", "node"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// PeriodExistsError reports an attempt to create a second period for the
// same calendar month.
type PeriodExistsError struct {
	Month int
	Year  int
}

func (e *PeriodExistsError) Error() string {
	return fmt.Sprintf("period already exists for %d-%02d", e.Year, e.Month)
}
