package melspec

import (
	"math"
	"testing"

	"slakhprep/internal/audio"
)

func TestMelScaleRoundTrip(t *testing.T) {
	if got := HzToMel(1000); math.Abs(got-15) > 1e-12 {
		t.Fatalf("HzToMel(1000) = %v, want 15", got)
	}
	if got := HzToMel(200); math.Abs(got-3) > 1e-12 {
		t.Fatalf("HzToMel(200) = %v, want 3", got)
	}
	for _, hz := range []float64{0, 440, 999, 1000, 4000, 22050} {
		if back := MelToHz(HzToMel(hz)); math.Abs(back-hz) > 1e-6 {
			t.Fatalf("round trip %v -> %v", hz, back)
		}
	}
}

func TestFilterBankShape(t *testing.T) {
	fb := NewFilterBank(44100, 2048, 128)
	if len(fb.Filters) != 128 || fb.Bins != 1025 {
		t.Fatalf("got %d filters over %d bins", len(fb.Filters), fb.Bins)
	}
	nonEmpty := 0
	for m, f := range fb.Filters {
		if f.Start < 0 || f.Start+len(f.Weights) > fb.Bins {
			t.Fatalf("filter %d spans bins %d..%d", m, f.Start, f.Start+len(f.Weights))
		}
		for _, w := range f.Weights {
			if w <= 0 {
				t.Fatalf("filter %d stores a non-positive weight", m)
			}
		}
		if len(f.Weights) > 0 {
			nonEmpty++
		}
		if len(f.Weights) > fb.Bins/4 {
			t.Fatalf("filter %d keeps %d bins; expected only its support", m, len(f.Weights))
		}
	}
	if nonEmpty < 120 {
		t.Fatalf("expected nearly every filter to cover a bin, got %d", nonEmpty)
	}
}

func TestFilterBankApplyMatchesDenseProjection(t *testing.T) {
	fb := NewFilterBank(16000, 512, 40)
	power := make([]float64, fb.Bins)
	for k := range power {
		power[k] = float64((k*37)%11) + 0.5
	}
	got := fb.Apply(power)
	for m := range fb.Filters {
		want := 0.0
		for k, p := range power {
			want += fb.Weight(m, k) * p
		}
		if math.Abs(got[m]-want) > 1e-9*math.Max(1, want) {
			t.Fatalf("filter %d: got %v want %v", m, got[m], want)
		}
	}
	if fb.Weight(0, fb.Bins-1) != 0 {
		t.Fatal("lowest filter should not reach the Nyquist bin")
	}
}

func TestComputeFramesMatchSTFT(t *testing.T) {
	opts := Options{SampleRate: 8000, NFFT: 256, HopLength: 64, NMels: 16, TopDB: 0}
	samples := sine(opts.SampleRate, 0.5, 700)
	spec := Compute(samples, opts)

	st := newSTFT(audio.Normalize(samples), opts.NFFT, opts.HopLength)
	bank := NewFilterBank(opts.SampleRate, opts.NFFT, opts.NMels)
	ref := 0.0
	mels := make([][]float64, st.frames)
	for f := range st.frames {
		mels[f] = bank.Apply(st.power(f))
		for _, v := range mels[f] {
			ref = math.Max(ref, v)
		}
	}
	if spec.Frames != st.frames {
		t.Fatalf("frames = %d, want %d", spec.Frames, st.frames)
	}
	refDB := 10 * math.Log10(ref)
	for f, mel := range mels {
		for m, v := range mel {
			want := 10*math.Log10(math.Max(amin, v)) - refDB
			if math.Abs(spec.Data[m][f]-want) > 1e-9 {
				t.Fatalf("frame %d band %d: got %v want %v", f, m, spec.Data[m][f], want)
			}
		}
	}
}

func sine(rate int, seconds, freq float64) []float64 {
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestComputeToneLandsInMatchingBand(t *testing.T) {
	opts := Options{SampleRate: 16000, NFFT: 512, HopLength: 128, NMels: 40, TopDB: 80}
	samples := sine(opts.SampleRate, 1, 1000)
	spec := Compute(samples, opts)

	if spec.Frames != 1+len(samples)/opts.HopLength {
		t.Fatalf("frames = %d", spec.Frames)
	}
	if spec.Silent {
		t.Fatal("tone should not be silent")
	}

	mid := spec.Frames / 2
	best, bestVal := -1, math.Inf(-1)
	maxVal, minVal := math.Inf(-1), math.Inf(1)
	for m := range spec.Data {
		v := spec.Data[m][mid]
		if v > bestVal {
			best, bestVal = m, v
		}
		for _, x := range spec.Data[m] {
			maxVal = math.Max(maxVal, x)
			minVal = math.Min(minVal, x)
		}
	}
	center := HzToMel(1000)
	lowHz := MelToHz(center - 2)
	highHz := MelToHz(center + 2)
	bandCenter := MelToHz(HzToMel(0) + (HzToMel(8000)-HzToMel(0))*float64(best+1)/41)
	if bandCenter < lowHz || bandCenter > highHz {
		t.Fatalf("loudest band %d centred at %.0f Hz, want near 1000 Hz", best, bandCenter)
	}
	if math.Abs(maxVal) > 1e-9 {
		t.Fatalf("peak should be 0 dB, got %v", maxVal)
	}
	if minVal < -80-1e-9 {
		t.Fatalf("values should be floored at -80 dB, got %v", minVal)
	}
}

func TestPatches(t *testing.T) {
	const frames = 10
	data := make([][]float64, 2)
	for m := range data {
		data[m] = make([]float64, frames)
		for f := range data[m] {
			data[m][f] = -80
		}
	}
	// Only frames 4..7 carry signal.
	for f := 4; f < 8; f++ {
		data[1][f] = -3
	}
	spec := &Spectrogram{Data: data, Frames: frames}

	patches := spec.Patches(4, 0, -60)
	if len(patches) != 1 {
		t.Fatalf("expected one non-silent patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Offset != 4 || p.NMels != 2 || p.Frames != 4 || len(p.Data) != 8 {
		t.Fatalf("unexpected patch %+v", p)
	}
	if p.Data[4] != -3 || p.Data[0] != -80 {
		t.Fatalf("patch data not row-major: %v", p.Data)
	}

	all := spec.Patches(4, 0, -100)
	if len(all) != 2 {
		t.Fatalf("expected trailing partial window dropped, got %d patches", len(all))
	}
	if limited := spec.Patches(2, 1, -100); len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestSilentInputYieldsNoPatches(t *testing.T) {
	opts := Options{SampleRate: 8000, NFFT: 256, HopLength: 64, NMels: 16, TopDB: 80}
	spec := Compute(make([]float64, 8000), opts)
	if !spec.Silent {
		t.Fatal("expected silent spectrogram")
	}
	if got := spec.Patches(16, 0, -60); len(got) != 0 {
		t.Fatalf("silent input produced %d patches", len(got))
	}
}
