package reconcile

import "fmt"

// LoadError reports a snapshot that could not be loaded. A scan that hits a
// LoadError aborts without producing a changeset.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Location, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// WriteError reports a snapshot that could not be persisted.
type WriteError struct {
	Destination string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Destination, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// InvariantError reports a broken contract inside a scan, such as a similarity
// oracle returning a non-finite score or an external entity claimed twice.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Reason
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
