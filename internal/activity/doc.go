// Package activity segments a signal into active regions from its RMS energy
// envelope.
//
// The envelope is computed over centred, zero-padded frames. Frames whose RMS
// exceeds a threshold are active; consecutive active frames merge into a
// segment until the time between two active frames exceeds the allowed gap.
// Segment bounds are frame start times rounded to a fixed number of decimals.
package activity
