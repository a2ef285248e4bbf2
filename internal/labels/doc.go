// Package labels derives categorical labels for dataset stems.
//
// Three label kinds are supported: the MIDI program number recorded in the
// track metadata, a coarse instrument group resolved through a flat mapping
// file, and the raw instrument class. The package also renders the per-split
// label listing format ("Track: <path>" headers followed by "<stem>: <value>"
// lines).
package labels
