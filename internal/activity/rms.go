package activity

import "math"

// RMS returns the root-mean-square energy of each frame. Frames are centred on
// multiples of hop: the signal is zero-padded by frameLength/2 on both sides,
// giving 1 + len(samples)/hop frames.
func RMS(samples []float64, frameLength, hop int) []float64 {
	if frameLength <= 0 || hop <= 0 {
		return nil
	}
	pad := frameLength / 2
	frames := 1 + len(samples)/hop
	out := make([]float64, frames)
	inv := 1 / float64(frameLength)
	for f := range out {
		start := f*hop - pad
		lo := max(start, 0)
		hi := min(start+frameLength, len(samples))
		sum := 0.0
		for i := lo; i < hi; i++ {
			sum += samples[i] * samples[i]
		}
		out[f] = math.Sqrt(sum * inv)
	}
	return out
}
