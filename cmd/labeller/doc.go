// Package main hosts the labeller CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, runs filesystem preflight
// checks and wires the catalog, label store, journal and exporter into a
// review engine driven by a line-oriented terminal presenter. Auxiliary
// commands scan a dataset, list journalled sessions and re-export them.
//
// Keep this package lean: behaviour belongs in the internal packages and
// commands here only assemble them.
package main
