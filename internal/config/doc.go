// Package config loads, normalizes, and validates podbench configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODBENCH_PROCESSOR. The Config type centralizes every knob the daemon and
// CLI need, so data directories, upload limits, and the processing toolchain
// command are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
