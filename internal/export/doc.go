// Package export serialises a label store snapshot to disk.
//
// Every write produces a delimited table with one row per record, in catalog
// order, and a companion plain-text summary named by replacing the table's
// extension with "_summary.txt". A Parquet table and a YAML summary can be
// enabled as extra companions. Files are replaced atomically and a write
// never touches in-memory session state.
//
// LockDestination guards an output table against concurrent sessions.
package export
