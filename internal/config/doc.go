// Package config loads, normalizes, and validates slakhprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SLAKHPREP_DATASET_ROOT. The Config type centralizes every knob the CLI and
// the preprocessing stages need: where the dataset lives, where outputs go, and
// the signal-processing parameters used for activity detection and Mel
// features.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
