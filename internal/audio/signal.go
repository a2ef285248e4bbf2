package audio

import (
	"math"
	"time"
)

// Signal is a mono sample buffer at a fixed rate.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the signal.
func (s *Signal) Duration() time.Duration {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Normalize scales samples so the peak magnitude is 1. Silent input is
// returned unchanged. The input slice is not modified.
func Normalize(samples []float64) []float64 {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	out := make([]float64, len(samples))
	if peak == 0 {
		copy(out, samples)
		return out
	}
	for i, v := range samples {
		out[i] = v / peak
	}
	return out
}

// Resample converts samples from one rate to another with linear
// interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from <= 0 || to <= 0 || from == to || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	n := int(math.Ceil(float64(len(samples)) * float64(to) / float64(from)))
	out := make([]float64, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// downmix averages interleaved-by-channel integer samples into mono floats.
// scale is the magnitude of full-scale PCM for the source bit depth.
func downmix(channels [][]int32, scale float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float64, n)
	inv := 1 / (scale * float64(len(channels)))
	for _, ch := range channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += float64(ch[i])
		}
	}
	for i := range out {
		out[i] *= inv
	}
	return out
}

func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return math.Ldexp(1, bitDepth-1)
}
