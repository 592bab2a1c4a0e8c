package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scanner detects external changes to a document.
type Scanner struct {
	loader     Loader
	similarity Similarity
	threshold  float64
	logger     *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSimilarity replaces the default StrictSimilarity oracle.
func WithSimilarity(fn Similarity) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.similarity = fn
		}
	}
}

// WithMatchThreshold sets the fuzzy acceptance threshold. Non-positive values
// keep the default.
func WithMatchThreshold(threshold float64) Option {
	return func(s *Scanner) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a scanner that loads snapshots through loader.
func NewScanner(loader Loader, opts ...Option) *Scanner {
	s := &Scanner{
		loader:     loader,
		similarity: StrictSimilarity,
		threshold:  DefaultMatchThreshold,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanRequest names the inputs of one scan.
type ScanRequest struct {
	// Memory is the editor's working copy, already in memory.
	Memory *Snapshot
	// Baseline is the location of the snapshot taken at the last synchronization.
	Baseline string
	// External is the location of the document on storage.
	External string
}

// ScanResult is the outcome of a successful scan.
type ScanResult struct {
	Changeset *Changeset
	Baseline  *Snapshot
	External  *Snapshot
	Duration  time.Duration
}

// Scan loads the baseline and external snapshots and reconciles them against
// memory. Loading happens once, up front; the context is not consulted after that.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	start := time.Now()
	baseline, external, err := s.loadPair(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.finish(req, baseline, external, start)
}

// loadPair loads the baseline and then the external snapshot.
func (s *Scanner) loadPair(ctx context.Context, req ScanRequest) (*Snapshot, *Snapshot, error) {
	baseline, err := s.load(ctx, req.Baseline, SourceBaseline)
	if err != nil {
		return nil, nil, err
	}
	external, err := s.load(ctx, req.External, SourceExternal)
	if err != nil {
		return nil, nil, err
	}
	return baseline, external, nil
}

// finish reconciles loaded snapshots against the request's memory snapshot.
func (s *Scanner) finish(req ScanRequest, baseline, external *Snapshot, start time.Time) (*ScanResult, error) {
	memory := req.Memory
	if memory == nil {
		memory = &Snapshot{Source: SourceMemory}
	}

	cs, err := s.Reconcile(memory, baseline, external)
	if err != nil {
		s.logger.Error("Scan failed", zap.String("external", req.External), zap.Error(err))
		return nil, err
	}

	result := &ScanResult{
		Changeset: cs,
		Baseline:  baseline,
		External:  external,
		Duration:  time.Since(start),
	}
	s.logger.Debug("Scan completed",
		zap.String("external", req.External),
		zap.Int("changes", cs.Len()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *Scanner) load(ctx context.Context, location string, src Source) (*Snapshot, error) {
	snap, err := s.loader.Load(ctx, location)
	if err != nil {
		s.logger.Warn("Failed to load snapshot", zap.String("location", location), zap.String("source", string(src)), zap.Error(err))
		return nil, &LoadError{Location: location, Err: err}
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	return snap.WithSource(src), nil
}

// Reconcile runs the five passes in order (metadata, preamble, definitions,
// records, groups) and returns the resulting changeset. Inputs are not modified.
func (s *Scanner) Reconcile(memory, baseline, external *Snapshot) (*Changeset, error) {
	sc := scorer{fn: s.similarity}
	cs := &Changeset{}

	cs.append(reconcileMetadata(memory.Metadata, baseline.Metadata, external.Metadata)...)
	cs.append(reconcilePreamble(memory.Preamble, baseline.Preamble, external.Preamble)...)

	defs, err := reconcileDefinitions(memory.Definitions, baseline.Definitions, external.Definitions)
	if err != nil {
		return nil, err
	}
	cs.append(defs...)

	records, err := reconcileRecords(sc, s.threshold, memory.Records, baseline.Records, external.Records)
	if err != nil {
		return nil, err
	}
	cs.append(records...)

	cs.append(reconcileGroups(baseline.Metadata.Groups, external.Metadata.Groups)...)
	return cs, nil
}
