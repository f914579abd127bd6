package internal

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMergeTooFew       = errors.New("need at least 2 contexts to merge")
	ErrNoForkSource      = errors.New("no valid branch to fork from")
	ErrUnknownStrategy   = errors.New("unknown merge strategy")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// HasChildrenError is returned when deleting a branch that still has child
// branches without force.
type HasChildrenError struct {
	Count int
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("branch has %d children, use force to delete anyway", e.Count)
}
