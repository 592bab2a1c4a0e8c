package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"bibsync/core/config"
	"bibsync/core/reconcile"
	"bibsync/core/storage"
	"bibsync/feature/bibtex"
)

// debug_parse <location> dumps what the parser sees in a document and checks
// that writing it back is lossless.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_parse <location>")
	}
	location := os.Args[1]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}

	store := bibtex.NewStore(client, nil, bibtex.WithBucket(cfg.Storage.Bucket))
	snap, err := store.Load(context.Background(), location)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Loaded %s\n", location)
	if snap.Preamble != nil {
		fmt.Printf("Preamble: %q\n", *snap.Preamble)
	}

	fmt.Printf("\n=== Strings (%d) ===\n", len(snap.Definitions))
	for _, d := range snap.Definitions {
		fmt.Printf("  %s %s = %q\n", d.ID, d.Name, d.Content)
	}

	fmt.Printf("\n=== Records (%d) ===\n", len(snap.Records))
	for i, r := range snap.Records {
		fmt.Printf("  [%d] @%s{%s} fields=%d\n", i, r.Type, r.Key, len(r.Fields))
	}

	fmt.Printf("\n=== Metadata (%d keys) ===\n", len(snap.Metadata.Values))
	for k, v := range snap.Metadata.Values {
		fmt.Printf("  %s = %s\n", k, v)
	}
	if snap.Metadata.Groups != nil {
		fmt.Println("\n=== Groups ===")
		printGroup(snap.Metadata.Groups, 0)
	}

	// Round trip check
	again, err := bibtex.ParseString(bibtex.Format(snap))
	if err != nil {
		log.Fatalf("formatted output does not parse: %v", err)
	}
	if !sameSnapshot(snap, again) {
		fmt.Println("\n⚠️  Writing and re-reading the document changes its content")
		os.Exit(1)
	}
	fmt.Println("\n✅ Round trip is lossless")
}

func printGroup(g *reconcile.GroupNode, depth int) {
	fmt.Printf("  %s%s %q (%d children)\n", strings.Repeat("  ", depth), g.Kind, g.Name, len(g.Children))
	for _, child := range g.Children {
		printGroup(child, depth+1)
	}
}

func sameSnapshot(a, b *reconcile.Snapshot) bool {
	if len(a.Records) != len(b.Records) || len(a.Definitions) != len(b.Definitions) {
		return false
	}
	for i := range a.Records {
		if !a.Records[i].Equal(b.Records[i]) {
			return false
		}
	}
	for i := range a.Definitions {
		if a.Definitions[i] != b.Definitions[i] {
			return false
		}
	}
	return a.Metadata.Equal(b.Metadata)
}
