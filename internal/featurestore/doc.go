// Package featurestore persists labelled Mel-spectrogram patches in SQLite.
//
// Each preprocessing run is recorded with a UUID, its split, and its outcome;
// patches reference the run that produced them and carry every label kind
// (program number, instrument class, coarse group) so a training job can pick
// its target without re-reading the dataset. Patch data is stored as
// little-endian float32 blobs in row-major mel-by-frame order.
package featurestore
