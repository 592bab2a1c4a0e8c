// Package reconcile detects changes made to a bibliography document outside
// the editor and turns them into a reviewable changeset.
//
// Three snapshots of the document take part in every scan:
//   - Memory: the editor's working copy
//   - Baseline: the copy recorded at the last synchronization with storage
//   - External: the document as currently found on storage
//
// Baseline and External are compared to find what changed on storage. Memory is
// consulted only to locate the local counterpart of each change, or to suppress
// changes the user has already made locally.
//
// # Passes
//
// A scan runs five passes in a fixed order and emits their changes in that order:
//
//  1. Metadata: the document-level settings block.
//  2. Preamble: the optional preamble text.
//  3. Definitions: string macros, matched by name, then by content.
//  4. Records: entries, matched exactly with a monotonic cursor over sorted
//     views, then fuzzily through a Similarity oracle, then reported as added.
//  5. Groups: the grouping tree, compared as a whole.
//
// # Usage Example
//
//	store := bibtex.NewStore(storageClient, logger)
//	scanner := reconcile.NewScanner(store, reconcile.WithLogger(logger))
//
//	res, err := scanner.Scan(ctx, reconcile.ScanRequest{
//	    Memory:   memory,
//	    Baseline: "library.bib.baseline",
//	    External: "library.bib",
//	})
//
//	applied, err := reconcile.ApplyChanges(memory, res.Changeset, reconcile.ApplyOptions{Confirmed: true})
//
// Concurrent scans of one document go through a Coordinator; baselines are
// written in the background by a Persister.
package reconcile
