// Package catalog discovers labellable images beneath a dataset root and
// returns them as an immutable, ordered, deduplicated sequence.
//
// A dataset is laid out as <root>/<case>/<visit>/... and a Recognizer decides
// which subtrees of each visit hold images for a given labelling variant.
// Every image is keyed by its resolved absolute path, so the same file
// reachable through two symlinked paths appears once.
//
// Directory recursion follows symlinks but tracks visited real directories and
// honours a depth bound; unreadable entries are logged and skipped.
package catalog
