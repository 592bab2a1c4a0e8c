package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Coordinator coalesces concurrent scans of the same document. Callers asking
// for the same baseline and external locations share one load of both
// snapshots; each caller then reconciles against its own memory snapshot.
type Coordinator struct {
	scanner *Scanner
	logger  *zap.Logger
	sf      singleflight.Group
}

// NewCoordinator wraps scanner. A nil logger disables logging.
func NewCoordinator(scanner *Scanner, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{scanner: scanner, logger: logger}
}

// loaded is the shared outcome of one load. Snapshots are never modified
// after loading, so callers may share them.
type loaded struct {
	baseline *Snapshot
	external *Snapshot
}

// Scan loads the snapshots named by req, joining a load already in flight for
// the same locations, and reconciles them against req.Memory. The returned
// flag reports whether the loaded snapshots were shared.
func (c *Coordinator) Scan(ctx context.Context, req ScanRequest) (*ScanResult, bool, error) {
	start := time.Now()
	key := loadKey(req.Baseline, req.External)

	v, err, shared := c.sf.Do(key, func() (interface{}, error) {
		baseline, external, err := c.scanner.loadPair(ctx, req)
		if err != nil {
			return nil, err
		}
		return &loaded{baseline: baseline, external: external}, nil
	})
	if shared {
		c.logger.Debug("Joined in-flight load", zap.String("document", req.External))
	}
	if err != nil {
		return nil, shared, err
	}

	l := v.(*loaded)
	res, err := c.scanner.finish(req, l.baseline, l.external, start)
	if err != nil {
		return nil, shared, err
	}
	return res, shared, nil
}

func loadKey(baseline, external string) string {
	return baseline + "\x00" + external
}
