package changes

import (
	"errors"
	"fmt"
	"time"

	"bibsync/core/reconcile"
	"bibsync/feature/history"
)

// ScanRequest names the documents taking part in a scan.
type ScanRequest struct {
	// Document is the external file as it is now on storage.
	Document string `json:"document" example:"refs.bib"`
	// Baseline is the copy recorded at the last synchronization.
	Baseline string `json:"baseline" example:".bibsync/refs.bib"`
	// Memory is the working copy. It defaults to the baseline.
	Memory string `json:"memory,omitempty" example:"work/refs.bib"`
}

// AcceptOptions selects and gates the changes to apply.
type AcceptOptions struct {
	// Output receives the updated working copy. It defaults to Memory.
	Output string `json:"output,omitempty"`
	// Accept lists change ids. Empty accepts every change.
	Accept []int `json:"accept,omitempty"`
	// Confirmed must be set for anything to be written.
	Confirmed bool `json:"confirmed"`
	// DryRun reports the plan without writing.
	DryRun bool `json:"dry_run"`
}

// AcceptRequest applies changes from a reviewed scan. The document is
// rescanned and the changes must still match the ones the scan reported.
type AcceptRequest struct {
	// ScanID names the scan whose change ids Accept refers to.
	ScanID string `json:"scan_id" example:"3f2b8c1e-0d4a-4c55-9a43-2b7c6f1e9d10"`
	ScanRequest
	AcceptOptions
}

// Report is the outcome of one scan.
type Report struct {
	ScanID    string               `json:"scan_id" yaml:"scan_id"`
	Document  string               `json:"document" yaml:"document"`
	Baseline  string               `json:"baseline" yaml:"baseline"`
	Status    history.Status       `json:"status" yaml:"status"`
	Summary   reconcile.Summary    `json:"summary" yaml:"summary"`
	Changes   []reconcile.Envelope `json:"changes" yaml:"changes"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
	Shared    bool                 `json:"shared" yaml:"shared"`
	StartedAt time.Time            `json:"started_at" yaml:"started_at"`
	Duration  time.Duration        `json:"-" yaml:"-"`

	memoryLocation string
	memory         *reconcile.Snapshot
	result         *reconcile.ScanResult
}

// Changeset returns the scanned changeset, or nil when the scan failed.
func (r *Report) Changeset() *reconcile.Changeset {
	if r == nil || r.result == nil {
		return nil
	}
	return r.result.Changeset
}

func (r *Report) fail(err error) {
	r.Status = history.StatusFailed
	r.Error = err.Error()
}

func (r *Report) complete(memory *reconcile.Snapshot, res *reconcile.ScanResult) {
	r.memory = memory
	r.result = res
	r.Summary = res.Changeset.Summary()
	r.Changes = res.Changeset.Envelopes()
	r.Status = history.StatusNoChanges
	if !res.Changeset.Empty() {
		r.Status = history.StatusChangesFound
	}
}

// AcceptResult reports what an accept run planned and did.
type AcceptResult struct {
	ScanID  string `json:"scan_id"`
	Planned []int  `json:"planned"`
	Applied []int  `json:"applied"`
	Skipped []int  `json:"skipped"`
	// Output is the location the working copy was written to, if any.
	Output string `json:"output,omitempty"`
	// BaselineUpdated is set when the scanned document was queued as the new baseline.
	BaselineUpdated bool `json:"baseline_updated"`
}

var (
	// ErrInvalidRequest is returned for requests missing a required location
	// or naming conflicting ones.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoOutput is returned when accepted changes have nowhere to go.
	ErrNoOutput = errors.New("an output or memory location is required to apply changes")
	// ErrInvalidSelection is returned for change ids that are not in the changeset.
	ErrInvalidSelection = errors.New("invalid change selection")
	// ErrNotScanned is returned when applying a report that holds no scan result.
	ErrNotScanned = errors.New("report has no scan result")
	// ErrUnknownScan is returned when accepting a scan that was never run or has expired.
	ErrUnknownScan = errors.New("unknown or expired scan")
	// ErrScanMismatch is returned when the changes found at accept time differ
	// from the ones the reviewed scan reported.
	ErrScanMismatch = errors.New("changes differ from the reviewed scan")
)

func (r ScanRequest) validate() error {
	if r.Document == "" || r.Baseline == "" {
		return fmt.Errorf("%w: document and baseline are required", ErrInvalidRequest)
	}
	return nil
}

func (r ScanRequest) memoryLocation() string {
	if r.Memory != "" {
		return r.Memory
	}
	return r.Baseline
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
