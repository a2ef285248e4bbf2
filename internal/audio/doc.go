// Package audio decodes stem audio files into mono floating-point signals.
//
// FLAC is the dataset's native format; WAV is accepted as well so derived or
// synthetic stems can flow through the same pipeline. Multi-channel audio is
// averaged to mono, integer PCM is scaled into [-1, 1], and signals are
// resampled linearly when the file rate differs from the requested rate.
package audio
