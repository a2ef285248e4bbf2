package activity

import "math"

// Segment is an active interval in seconds.
type Segment struct {
	Start float64
	End   float64
}

// Options configures Detect.
type Options struct {
	FrameLength int
	HopLength   int
	// Threshold is the RMS level a frame must exceed to count as active.
	Threshold float64
	// MaxGap is the longest silence, in seconds, bridged inside one segment.
	MaxGap float64
	// Precision is the number of decimals kept in segment bounds.
	Precision int
}

// DefaultOptions returns the parameters used for Slakh stems.
func DefaultOptions() Options {
	return Options{
		FrameLength: 2048,
		HopLength:   512,
		Threshold:   0.005,
		MaxGap:      0.3,
		Precision:   2,
	}
}

// Detect returns the active segments of samples recorded at sampleRate.
func Detect(samples []float64, sampleRate int, opts Options) []Segment {
	if sampleRate <= 0 {
		return nil
	}
	envelope := RMS(samples, opts.FrameLength, opts.HopLength)
	times := make([]float64, 0, len(envelope))
	for frame, value := range envelope {
		if value > opts.Threshold {
			times = append(times, float64(frame*opts.HopLength)/float64(sampleRate))
		}
	}
	return Merge(times, opts.MaxGap, opts.Precision)
}

// Merge groups ascending activity times into segments, splitting wherever two
// consecutive times are more than maxGap apart.
func Merge(times []float64, maxGap float64, precision int) []Segment {
	if len(times) == 0 {
		return []Segment{}
	}
	var segments []Segment
	start := times[0]
	for i := 1; i < len(times); i++ {
		if times[i]-times[i-1] > maxGap {
			segments = append(segments, Segment{
				Start: round(start, precision),
				End:   round(times[i-1], precision),
			})
			start = times[i]
		}
	}
	segments = append(segments, Segment{
		Start: round(start, precision),
		End:   round(times[len(times)-1], precision),
	})
	return segments
}

func round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.RoundToEven(v*scale) / scale
}
