package melspec

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"slakhprep/internal/audio"
)

const amin = 1e-10

// Options configures Compute.
type Options struct {
	SampleRate int
	NFFT       int
	HopLength  int
	NMels      int
	TopDB      float64
}

// DefaultOptions matches the classifier's expected input.
func DefaultOptions() Options {
	return Options{SampleRate: 44100, NFFT: 2048, HopLength: 512, NMels: 128, TopDB: 80}
}

// Spectrogram is a dB-scaled Mel spectrogram stored as Data[mel][frame].
type Spectrogram struct {
	Data   [][]float64
	Frames int
	// Silent reports that the input carried no energy; every bin is 0 dB.
	Silent bool
}

// Compute peak-normalises samples and returns their Mel spectrogram in dB.
// Power spectra are projected onto the filter bank frame by frame, so only the
// NMels x frames matrix is held in memory.
func Compute(samples []float64, opts Options) *Spectrogram {
	normalized := audio.Normalize(samples)
	st := newSTFT(normalized, opts.NFFT, opts.HopLength)
	bank := NewFilterBank(opts.SampleRate, opts.NFFT, opts.NMels)

	frames := st.frames
	data := make([][]float64, opts.NMels)
	for m := range data {
		data[m] = make([]float64, frames)
	}
	mel := make([]float64, opts.NMels)
	ref := 0.0
	for f := range frames {
		bank.ApplyTo(mel, st.power(f))
		for m, v := range mel {
			data[m][f] = v
			if v > ref {
				ref = v
			}
		}
	}
	powerToDB(data, ref, opts.TopDB)
	return &Spectrogram{Data: data, Frames: frames, Silent: ref <= amin}
}

// powerToDB converts data in place to 10*log10(S/ref), floored topDB below
// the resulting maximum.
func powerToDB(data [][]float64, ref, topDB float64) {
	refDB := 10 * math.Log10(math.Max(amin, ref))
	peak := math.Inf(-1)
	for _, row := range data {
		for i, v := range row {
			db := 10*math.Log10(math.Max(amin, v)) - refDB
			row[i] = db
			if db > peak {
				peak = db
			}
		}
	}
	if topDB > 0 {
		floor := peak - topDB
		for _, row := range data {
			for i, v := range row {
				if v < floor {
					row[i] = floor
				}
			}
		}
	}
}

// stft yields |STFT|^2 over nFFT/2+1 bins for centred, zero-padded frames
// under a periodic Hann window. The returned spectrum is reused between calls.
type stft struct {
	samples  []float64
	window   []float64
	fft      *fourier.FFT
	hop, pad int
	frames   int
	buf      []float64
	coeffs   []complex128
	spectrum []float64
}

func newSTFT(samples []float64, nFFT, hop int) *stft {
	return &stft{
		samples:  samples,
		window:   hann(nFFT),
		fft:      fourier.NewFFT(nFFT),
		hop:      hop,
		pad:      nFFT / 2,
		frames:   1 + len(samples)/hop,
		buf:      make([]float64, nFFT),
		coeffs:   make([]complex128, nFFT/2+1),
		spectrum: make([]float64, nFFT/2+1),
	}
}

func (s *stft) power(frame int) []float64 {
	start := frame*s.hop - s.pad
	for k := range s.buf {
		idx := start + k
		if idx >= 0 && idx < len(s.samples) {
			s.buf[k] = s.samples[idx] * s.window[k]
		} else {
			s.buf[k] = 0
		}
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, s.buf)
	for k, c := range s.coeffs {
		re, im := real(c), imag(c)
		s.spectrum[k] = re*re + im*im
	}
	return s.spectrum
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
