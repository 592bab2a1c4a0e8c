package changes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"bibsync/core/reconcile"
	"bibsync/core/storage"
	"bibsync/feature/history"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store loads and saves documents and checks that they exist.
type Store interface {
	reconcile.Loader
	reconcile.Writer
	Exists(ctx context.Context, location string) (bool, error)
}

// Service scans documents for external changes and applies accepted ones.
type Service struct {
	store       Store
	coordinator *reconcile.Coordinator
	persister   *reconcile.Persister
	history     *history.Repository
	reviews     *reviews
	logger      *zap.Logger
}

// NewService creates a change service. repo may be nil to disable history.
func NewService(store Store, repo *history.Repository, cfg reconcile.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		repo = history.NewRepository(nil, logger)
	}
	scanner := reconcile.NewScanner(store,
		reconcile.WithMatchThreshold(cfg.MatchThreshold),
		reconcile.WithLogger(logger),
	)
	return &Service{
		store:       store,
		coordinator: reconcile.NewCoordinator(scanner, logger),
		persister:   reconcile.NewPersister(store, logger),
		history:     repo,
		reviews:     newReviews(reviewLimit),
		logger:      logger,
	}
}

// Scan compares the document against its baseline and records the outcome.
// A failed scan still returns its report, with status failed.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	report := &Report{
		ScanID:         uuid.NewString(),
		Document:       req.Document,
		Baseline:       req.Baseline,
		Changes:        []reconcile.Envelope{},
		StartedAt:      time.Now().UTC(),
		memoryLocation: req.Memory,
	}
	err := s.scan(ctx, req, report)
	report.Duration = time.Since(report.StartedAt)

	l := s.logger.With(zap.String("scan_id", report.ScanID), zap.String("document", req.Document))
	if err != nil {
		l.Error("Scan failed", zap.Error(err))
	} else {
		l.Info("Scan finished",
			zap.String("status", string(report.Status)),
			zap.Int("changes", report.Summary.Total),
			zap.Bool("shared", report.Shared),
		)
	}

	s.record(ctx, report)
	if err == nil {
		if err := s.reviews.put(req, report); err != nil {
			l.Warn("Failed to remember scan", zap.Error(err))
		}
	}
	return report, err
}

func (s *Service) scan(ctx context.Context, req ScanRequest, report *Report) error {
	location := req.memoryLocation()
	memory, err := s.store.Load(ctx, location)
	if err != nil {
		err = &reconcile.LoadError{Location: location, Err: err}
		report.fail(err)
		return err
	}
	memory.Source = reconcile.SourceMemory

	res, shared, err := s.coordinator.Scan(ctx, reconcile.ScanRequest{
		Memory:   memory,
		Baseline: req.Baseline,
		External: req.Document,
	})
	if err != nil {
		report.fail(err)
		return err
	}
	report.Shared = shared
	report.complete(memory, res)
	return nil
}

func (s *Service) record(ctx context.Context, r *Report) {
	rec := &history.ScanRecord{
		ID:              r.ScanID,
		Document:        r.Document,
		Baseline:        r.Baseline,
		Status:          r.Status,
		Changes:         r.Summary.Total,
		RecordsAdded:    r.Summary.RecordsAdded,
		RecordsRemoved:  r.Summary.RecordsRemoved,
		RecordsModified: r.Summary.RecordsModified,
		Error:           r.Error,
		StartedAt:       r.StartedAt,
		DurationMS:      r.Duration.Milliseconds(),
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Warn("Failed to record scan", zap.String("scan_id", r.ScanID), zap.Error(err))
	}
}

// Accept applies the selected changes of the reviewed scan req.ScanID. The
// document is rescanned first; if the changes found now differ from the
// reviewed ones, nothing is applied and ErrScanMismatch is returned.
func (s *Service) Accept(ctx context.Context, req AcceptRequest) (*AcceptResult, error) {
	if req.ScanID == "" {
		return nil, fmt.Errorf("%w: scan_id is required", ErrInvalidRequest)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	reviewed, ok := s.reviews.get(req.ScanID)
	if !ok {
		return nil, ErrUnknownScan
	}
	if reviewed.req != req.ScanRequest {
		return nil, fmt.Errorf("%w: scan %s was run on other documents", ErrScanMismatch, req.ScanID)
	}

	report, err := s.Scan(ctx, req.ScanRequest)
	if err != nil {
		return nil, err
	}
	if !reviewed.matches(report) {
		s.logger.Warn("Document changed since review",
			zap.String("scan_id", req.ScanID),
			zap.String("rescan_id", report.ScanID),
			zap.String("document", req.Document),
		)
		return nil, fmt.Errorf("%w: rescan %s", ErrScanMismatch, report.ScanID)
	}

	result, err := s.Apply(ctx, report, req.AcceptOptions)
	if err != nil {
		return nil, err
	}
	if result.Output != "" {
		s.reviews.drop(req.ScanID)
	}
	return result, nil
}

// Apply applies changes from a finished scan. When the run is confirmed and
// not a dry run, the updated working copy is written to the output and the
// scanned document becomes the new baseline in the background.
func (s *Service) Apply(ctx context.Context, report *Report, opts AcceptOptions) (*AcceptResult, error) {
	if report == nil || report.result == nil {
		return nil, ErrNotScanned
	}
	out := &AcceptResult{ScanID: report.ScanID, Planned: []int{}, Applied: []int{}, Skipped: []int{}}
	if report.result.Changeset.Empty() {
		return out, nil
	}

	write := opts.Confirmed && !opts.DryRun
	output := opts.Output
	if output == "" {
		output = report.memoryLocation
	}
	if write && output == "" {
		return nil, ErrNoOutput
	}
	if output != "" && sameLocation(output, report.Baseline) {
		return nil, fmt.Errorf("%w: output must differ from the baseline", ErrInvalidRequest)
	}

	res, err := reconcile.ApplyChanges(report.memory, report.result.Changeset, reconcile.ApplyOptions{
		Accept:    opts.Accept,
		Confirmed: opts.Confirmed,
		DryRun:    opts.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	out.Planned = nonNil(res.Planned)
	out.Applied = nonNil(res.Applied)
	out.Skipped = nonNil(res.Skipped)

	if !write {
		return out, nil
	}

	if err := s.store.Save(ctx, res.Snapshot, output); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", output, err)
	}
	out.Output = output

	s.persister.PersistAsync(report.result.External, report.Baseline)
	out.BaselineUpdated = true

	if err := s.history.MarkAccepted(ctx, report.ScanID, len(res.Applied)); err != nil && !errors.Is(err, history.ErrNotFound) {
		s.logger.Warn("Failed to record accepted changes", zap.String("scan_id", report.ScanID), zap.Error(err))
	}

	s.logger.Info("Changes applied",
		zap.String("scan_id", report.ScanID),
		zap.Int("applied", len(res.Applied)),
		zap.Int("skipped", len(res.Skipped)),
		zap.String("output", output),
	)
	return out, nil
}

// Init seeds a missing baseline with the current document. It reports
// whether a baseline was written.
func (s *Service) Init(ctx context.Context, document, baseline string) (bool, error) {
	exists, err := s.store.Exists(ctx, baseline)
	if err != nil {
		return false, fmt.Errorf("failed to check baseline %s: %w", baseline, err)
	}
	if exists {
		return false, nil
	}

	snap, err := s.store.Load(ctx, document)
	if err != nil {
		return false, &reconcile.LoadError{Location: document, Err: err}
	}
	if err := s.persister.Persist(ctx, snap, baseline); err != nil {
		return false, err
	}
	s.logger.Info("Baseline initialized", zap.String("document", document), zap.String("baseline", baseline))
	return true, nil
}

// History lists recorded scans, newest first.
func (s *Service) History(ctx context.Context, document string, limit int) ([]history.ScanRecord, error) {
	return s.history.List(ctx, document, limit)
}

// Wait blocks until background baseline writes have finished.
func (s *Service) Wait() {
	s.persister.Wait()
}

// sameLocation reports whether two locations name the same document. Local
// paths are compared after cleaning.
func sameLocation(a, b string) bool {
	_, _, remoteA := storage.ParseLocation(a)
	_, _, remoteB := storage.ParseLocation(b)
	if remoteA || remoteB {
		return a == b
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
