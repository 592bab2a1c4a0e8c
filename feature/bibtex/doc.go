// Package bibtex reads and writes BibTeX documents as reconcile snapshots.
//
// The parser understands regular entries, @string definitions, @preamble and
// the jabref-meta comments that carry document settings and the group tree.
// Other comments and text between entries are ignored.
//
// # Values
//
// A braced or quoted value is stored without its delimiters. Numbers, macro
// names and # concatenations are stored as written. On output, numbers, known
// macros (the twelve month names plus the document's own definitions) and
// concatenations are written bare; everything else is wrapped in braces.
//
// # Locations
//
// Store resolves a location either as a local path or, when it starts with
// s3://, as an object in the configured MinIO/S3 storage. Local saves go
// through a temporary file and a rename so readers never see a partial file.
// With WithBucket set, the short form s3:object addresses an object in that
// bucket.
package bibtex
