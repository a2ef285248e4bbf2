// Package melspec computes log-power Mel spectrograms and slices them into
// fixed-size patches for the instrument classifier.
//
// Spectra come from a centred short-time Fourier transform with a periodic
// Hann window. Power is projected onto a Slaney-style Mel filter bank and
// converted to decibels relative to the spectrogram's peak, floored top_db
// below it.
package melspec
