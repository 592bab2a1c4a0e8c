package reconcile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Persister writes baseline snapshots in the background. Failures are logged
// and never retried.
type Persister struct {
	writer Writer
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewPersister creates a persister that saves through w.
func NewPersister(w Writer, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{writer: w, logger: logger}
}

// PersistAsync saves a copy of snapshot to destination on a new goroutine.
func (p *Persister) PersistAsync(snapshot *Snapshot, destination string) {
	snap := snapshot.Clone()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.Persist(context.Background(), snap, destination); err != nil {
			p.logger.Error("Failed to persist baseline", zap.String("destination", destination), zap.Error(err))
		}
	}()
}

// Persist saves snapshot to destination synchronously.
func (p *Persister) Persist(ctx context.Context, snapshot *Snapshot, destination string) error {
	if snapshot == nil {
		return &WriteError{Destination: destination, Err: errors.New("nil snapshot")}
	}
	if err := p.writer.Save(ctx, snapshot.WithSource(SourceBaseline), destination); err != nil {
		var we *WriteError
		if errors.As(err, &we) {
			return err
		}
		return &WriteError{Destination: destination, Err: err}
	}
	p.logger.Debug("Baseline persisted", zap.String("destination", destination))
	return nil
}

// Wait blocks until every pending write has finished.
func (p *Persister) Wait() {
	p.wg.Wait()
}
