package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned for merges and reads with an empty key.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrNilValue is returned for merges without a value.
	ErrNilValue = errors.New("value must not be nil")

	// ErrUnboundHandle is returned by merges through a zero Handle, such as
	// the one returned with a bind error.
	ErrUnboundHandle = errors.New("handle is not bound to a store")

	// ErrNotEmpty is returned by Load on a store that already holds slots.
	ErrNotEmpty = errors.New("store is not empty")
)

// MergeError reports a failed merge. The slot named by Key is unchanged.
//
// Err is the cause; numeric failures (PARSE_ERROR, ARITHMETIC_OVERFLOW,
// DOMAIN_MISMATCH) are reachable through errors.As and the numeric.Is*
// helpers.
type MergeError struct {
	Op      Op
	Key     string
	Ordinal uint64
	Err     error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s %q at ordinal %d: %v", e.Op, e.Key, e.Ordinal, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
