package catalogmodule

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an operation referenced an entity id absent
// from the repository
var ErrNotFound = errors.New("entity not found")

// FatalError marks an unrecoverable durable-commit failure. Once a
// write-path commit fails the in-memory and durable states can no
// longer be reconciled, so the hosting process is expected to treat any
// error matching this type as fatal (log and terminate) rather than
// continue split-brained.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("unrecoverable store failure during %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err carries a FatalError
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}

func fatal(op string, err error) error {
	return &FatalError{Op: op, Err: err}
}
