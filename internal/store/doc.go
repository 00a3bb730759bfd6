// Package store persists processing runs in SQLite.
//
// A run captures the calibration profile, the per-repetition mean
// activations, and the failures of one session so results can be listed and
// compared later without reprocessing the recordings. Writers serialize on a
// lock file beside the database; readers rely on WAL.
//
// Schema changes bump schemaVersion in schema.go. Older databases are
// rejected with ErrSchemaMismatch and must be removed by the user.
package store
