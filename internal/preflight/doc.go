// Package preflight provides readiness checks for the filesystem paths a
// labelling session depends on.
//
// The label command runs RunAll before building the catalog so a session
// never starts against an unreadable dataset or an unwritable output
// location. "labeller config validate" prints the same results.
package preflight
