// Package prep runs the split-level preprocessing operations: label listings,
// raw activity timestamps, and Mel-spectrogram features.
//
// Every operation follows the same shape. Tracks of a split are listed in
// name order, processed independently on the batch worker pool, and their
// results are written sequentially in track order. Text outputs are written
// through an atomic temp file while an exclusive lock on the output path is
// held; features go to the SQLite feature store under a fresh run id.
// Tracks without metadata.yaml are skipped silently (debug log only).
package prep
