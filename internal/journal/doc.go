// Package journal persists review sessions and their labels to SQLite.
//
// The engine writes through the journal after every successful mutation of
// the in-memory label store, so an interrupted session can be resumed with
// its labels and accumulated durations intact. The journal is a recovery
// log only; the exported table remains the deliverable.
//
// The schema is versioned. A database created by an incompatible version is
// rejected with ErrSchemaMismatch rather than migrated.
package journal
