package event

import "fmt"

// ValidationError reports a malformed event rejected at the
// store boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

// StorageError wraps an I/O failure reading or writing the
// event log. Aggregations surface it to the caller rather than
// returning a silently-incomplete report.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("event log %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
