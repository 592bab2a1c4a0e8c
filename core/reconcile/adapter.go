package reconcile

import "context"

// Loader reads a snapshot from a location (a file path or an object URL).
// Implementations return the parsed records, definitions, preamble and metadata;
// the scanner sets the snapshot source.
type Loader interface {
	Load(ctx context.Context, location string) (*Snapshot, error)
}

// Writer persists a snapshot to a destination.
type Writer interface {
	Save(ctx context.Context, snapshot *Snapshot, destination string) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, location string) (*Snapshot, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, location string) (*Snapshot, error) {
	return f(ctx, location)
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, snapshot *Snapshot, destination string) error

// Save calls f.
func (f WriterFunc) Save(ctx context.Context, snapshot *Snapshot, destination string) error {
	return f(ctx, snapshot, destination)
}
