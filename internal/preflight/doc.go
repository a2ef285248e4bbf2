// Package preflight provides readiness checks for the filesystem paths that
// slakhprep depends on.
//
// The CLI runs RunAll before processing a split so a run fails early when the
// dataset is unreadable or the output directory is full, instead of after
// hours of decoding. Each result is also rendered by "slakhprep summary".
package preflight
