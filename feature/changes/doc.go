// Package changes is the user-facing side of change detection.
//
// Service ties a document store, the scan coordinator, the baseline persister
// and the scan history together. A scan loads the working copy (the baseline
// when no separate copy is given), coordinates with any scan already running
// for the same document and records the outcome. Accepting changes applies
// the selected ones to the working copy, writes it to the output location and
// queues the scanned document as the new baseline.
//
// # Surfaces
//
//   - Handler exposes POST /changes/scan, POST /changes/accept and GET /changes/history.
//   - TerminalPresenter renders a report as text, JSON or YAML and prompts for confirmation.
//   - Watcher rescans a local document after each write, debounced.
//
// # Usage
//
//	svc := changes.NewService(bibtex.NewStore(client, log), repo, cfg.Scan, log)
//	report, err := svc.Scan(ctx, changes.ScanRequest{Document: "refs.bib", Baseline: ".bibsync/refs.bib"})
package changes
