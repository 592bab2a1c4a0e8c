package changes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"bibsync/core/storage"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrNotWatchable is returned when the document is not a local file.
var ErrNotWatchable = errors.New("only local documents can be watched")

// Watcher rescans a document whenever it is written, created, renamed or
// removed. A scan is skipped while the document is missing, so a file moved
// away and back is scanned once it reappears.
type Watcher struct {
	service  *Service
	req      ScanRequest
	debounce time.Duration
	onReport func(*Report)
	logger   *zap.Logger
}

// NewWatcher creates a watcher that passes every report to onReport. Writes
// closer together than debounce trigger a single scan.
func NewWatcher(service *Service, req ScanRequest, debounce time.Duration, onReport func(*Report), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{service: service, req: req, debounce: debounce, onReport: onReport, logger: logger}
}

// Run watches until ctx is cancelled. The document's directory is watched so
// that editors replacing the file through a rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.req.validate(); err != nil {
		return err
	}
	if _, _, ok := storage.ParseLocation(w.req.Document); ok {
		return ErrNotWatchable
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	target, err := filepath.Abs(w.req.Document)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.req.Document, err)
	}
	w.logger.Info("Watching document", zap.String("document", target), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev, target) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		case <-timer.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

func (w *Watcher) scan(ctx context.Context) {
	exists, err := w.service.store.Exists(ctx, w.req.Document)
	if err != nil {
		w.logger.Warn("Failed to check document", zap.String("document", w.req.Document), zap.Error(err))
		return
	}
	if !exists {
		w.logger.Info("Document is missing, waiting for it to return", zap.String("document", w.req.Document))
		return
	}

	report, err := w.service.Scan(ctx, w.req)
	if report == nil {
		w.logger.Error("Scan could not start", zap.Error(err))
		return
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}
