// Package config loads, normalizes, and validates labeller configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LABELLER_ANNOTATOR and LABELLER_DATASET_ROOT. The Config type centralizes
// every knob the CLI and review session need, so the dataset root, output
// table, journal location, and taxonomy variant are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
