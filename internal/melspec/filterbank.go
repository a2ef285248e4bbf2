package melspec

import "math"

const (
	melFSP     = 200.0 / 3
	melMinLogH = 1000.0
	melMinLogM = melMinLogH / melFSP
)

var melLogStep = math.Log(6.4) / 27

// HzToMel converts a frequency to the Slaney mel scale: linear below 1 kHz,
// logarithmic above.
func HzToMel(hz float64) float64 {
	if hz < melMinLogH {
		return hz / melFSP
	}
	return melMinLogM + math.Log(hz/melMinLogH)/melLogStep
}

// MelToHz inverts HzToMel.
func MelToHz(mel float64) float64 {
	if mel < melMinLogM {
		return mel * melFSP
	}
	return melMinLogH * math.Exp(melLogStep*(mel-melMinLogM))
}

// Filter is one triangular filter. Weights cover bins Start through
// Start+len(Weights)-1; every other bin weighs zero.
type Filter struct {
	Start   int
	Weights []float64
}

// FilterBank holds nMels triangular filters over nFFT/2+1 frequency bins.
type FilterBank struct {
	Filters []Filter
	Bins    int
}

// NewFilterBank builds area-normalised triangular filters spanning 0 Hz to
// the Nyquist frequency.
func NewFilterBank(sampleRate, nFFT, nMels int) *FilterBank {
	bins := nFFT/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nFFT)
	}

	minMel := HzToMel(0)
	maxMel := HzToMel(float64(sampleRate) / 2)
	melFreqs := make([]float64, nMels+2)
	for i := range melFreqs {
		mel := minMel + (maxMel-minMel)*float64(i)/float64(nMels+1)
		melFreqs[i] = MelToHz(mel)
	}

	filters := make([]Filter, nMels)
	for m := range filters {
		lower, center, upper := melFreqs[m], melFreqs[m+1], melFreqs[m+2]
		enorm := 2 / (upper - lower)
		first, last := -1, -1
		row := make([]float64, bins)
		for k, f := range fftFreqs {
			left := (f - lower) / (center - lower)
			right := (upper - f) / (upper - center)
			if w := math.Min(left, right); w > 0 {
				row[k] = w * enorm
				if first < 0 {
					first = k
				}
				last = k
			}
		}
		if first >= 0 {
			filters[m] = Filter{Start: first, Weights: row[first : last+1 : last+1]}
		}
	}
	return &FilterBank{Filters: filters, Bins: bins}
}

// Weight returns the weight of filter m at frequency bin k.
func (fb *FilterBank) Weight(m, k int) float64 {
	f := fb.Filters[m]
	if k < f.Start || k >= f.Start+len(f.Weights) {
		return 0
	}
	return f.Weights[k-f.Start]
}

// Apply projects a power spectrum onto the filter bank.
func (fb *FilterBank) Apply(power []float64) []float64 {
	out := make([]float64, len(fb.Filters))
	fb.ApplyTo(out, power)
	return out
}

// ApplyTo writes the projection of power into dst, which must hold one value
// per filter.
func (fb *FilterBank) ApplyTo(dst, power []float64) {
	for m, f := range fb.Filters {
		sum := 0.0
		for i, w := range f.Weights {
			if k := f.Start + i; k < len(power) {
				sum += w * power[k]
			}
		}
		dst[m] = sum
	}
}
