// Package history records every scan in the database configured under
// database.*, one row per scan.
//
// Rows carry the document and baseline locations, the outcome status, the
// per-kind counts of the changeset and, once changes are accepted, the number
// applied. When no database is configured the repository silently discards
// writes and lists nothing.
package history
