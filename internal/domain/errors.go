package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIO reports an unreadable roster or credential file.
	ErrIO = errors.New("io error")
	// ErrFormat reports a roster line that cannot be split into fields.
	ErrFormat = errors.New("malformed roster row")
	// ErrMapping reports a roster row with too few fields.
	ErrMapping = errors.New("unmappable roster row")
	// ErrProvisioning reports that the remote service did not create an account.
	ErrProvisioning = errors.New("account not created")
)

// RowError ties a per-row error to its line in the roster file.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("roster line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
