// Package inventory persists inspected parts and their classification results
// in SQLite.
//
// The Store owns connection setup, schema initialization, and every read and
// write of inventory_items and predictions_log. Each mutating call runs in its
// own transaction and commits before returning, so callers always read their
// own writes. Patch and BatchPatch carry the partial-update rules (trimming,
// status validation, append-or-replace notes) and are applied purely before
// anything is written.
//
// Schema changes bump schemaVersion in schema.go; an existing database with a
// different version is rejected at Open.
package inventory
