package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"bibsync/core/config"
	"bibsync/core/reconcile"
	"bibsync/core/storage"
	"bibsync/feature/bibtex"
	"bibsync/feature/changes"
)

// debug_scan <baseline> <external> [memory] prints every stage of a scan.
func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: debug_scan <baseline> <external> [memory]")
	}
	baselineLoc, externalLoc := os.Args[1], os.Args[2]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}

	store := bibtex.NewStore(client, nil, bibtex.WithBucket(cfg.Storage.Bucket))
	ctx := context.Background()

	// Step 1: Load every snapshot
	fmt.Println("=== STEP 1: Loading ===")
	baseline := mustLoad(ctx, store, baselineLoc)
	external := mustLoad(ctx, store, externalLoc)
	memory := baseline.Clone()
	if len(os.Args) > 3 {
		memory = mustLoad(ctx, store, os.Args[3])
	}
	for _, s := range []struct {
		name string
		snap *reconcile.Snapshot
	}{{"baseline", baseline}, {"external", external}, {"memory", memory}} {
		fmt.Printf("%-9s records=%d definitions=%d preamble=%v metadata_keys=%d groups=%v\n",
			s.name, len(s.snap.Records), len(s.snap.Definitions), s.snap.Preamble != nil,
			len(s.snap.Metadata.Values), s.snap.Metadata.Groups != nil)
	}

	// Step 2: Shared ordering
	fmt.Println("\n=== STEP 2: Matching Order ===")
	printOrder("baseline", baseline)
	printOrder("external", external)

	// Step 3: Reconcile
	fmt.Println("\n=== STEP 3: Reconcile ===")
	scanner := reconcile.NewScanner(store, reconcile.WithMatchThreshold(cfg.Scan.MatchThreshold))
	cs, err := scanner.Reconcile(memory, baseline, external)
	if err != nil {
		log.Fatal(err)
	}
	if cs.Empty() {
		fmt.Println("No changes found")
	}
	for _, e := range cs.Entries {
		fmt.Printf("#%d [%s] %s\n", e.ID, e.Change.Section(), changes.Describe(e.Change))
	}

	// Save detailed output
	data, _ := json.MarshalIndent(cs, "", "  ")
	os.WriteFile("debug_scan.json", data, 0644)

	fmt.Println("\nDebug complete. Check debug_scan.json for details.")
}

func mustLoad(ctx context.Context, store *bibtex.Store, location string) *reconcile.Snapshot {
	snap, err := store.Load(ctx, location)
	if err != nil {
		log.Fatalf("failed to load %s: %v", location, err)
	}
	return snap
}

func printOrder(name string, snap *reconcile.Snapshot) {
	fmt.Printf("%s:\n", name)
	for rank, i := range reconcile.SortOrder(snap.Records) {
		r := snap.Records[i]
		fmt.Printf("  %3d. [%d] %s (%s, %s)\n", rank+1, i, r.Key, r.Fields["year"], r.Fields["author"])
	}
}
