package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const flacBlockSize = 1024

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWAV encodes float samples in [-1, 1] as 16-bit PCM. Each channel slice
// must have the same length.
func WriteWAV(t testing.TB, path string, sampleRate int, channels ...[]float64) {
	t.Helper()

	if len(channels) == 0 {
		t.Fatalf("WriteWAV %s: no channels", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	frames := len(channels[0])
	data := make([]int, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			v := math.Max(-1, math.Min(1, ch[i]))
			data = append(data, int(math.Round(v*32767)))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, len(channels), 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// WriteFLAC encodes 16-bit PCM channels as a verbatim FLAC stream with
// fixed-size blocks. Each channel slice must have the same length.
func WriteFLAC(t testing.TB, path string, sampleRate int, channels ...[]int32) {
	t.Helper()

	if len(channels) == 0 || len(channels) > 2 {
		t.Fatalf("WriteFLAC %s: want 1 or 2 channels, got %d", path, len(channels))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	total := len(channels[0])
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: 16,
		NSamples:      uint64(total),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		_ = f.Close()
		t.Fatalf("flac encoder for %s: %v", path, err)
	}

	layout := frame.ChannelsMono
	if len(channels) == 2 {
		layout = frame.ChannelsLR
	}
	for start := 0; start < total; start += flacBlockSize {
		end := min(start+flacBlockSize, total)
		subframes := make([]*frame.Subframe, len(channels))
		for ch, samples := range channels {
			subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples[start:end],
				NSamples:  end - start,
			}
		}
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(end - start),
				SampleRate:        uint32(sampleRate),
				Channels:          layout,
				BitsPerSample:     16,
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(fr); err != nil {
			_ = enc.Close()
			t.Fatalf("encode %s: %v", path, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// Tone returns seconds of a sine at freq with the given amplitude.
func Tone(sampleRate int, seconds, freq, amplitude float64) []float64 {
	n := int(math.Round(seconds * float64(sampleRate)))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence returns seconds of zero samples.
func Silence(sampleRate int, seconds float64) []float64 {
	return make([]float64, int(math.Round(seconds*float64(sampleRate))))
}

// Concat joins sample slices.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// StemSpec describes one stem of a synthetic track.
type StemSpec struct {
	ID         string
	InstClass  string
	Program    int
	IsDrum     bool
	Unrendered bool
	// Samples is written as stems/<ID>.wav when non-nil.
	Samples []float64
}

// WriteTrack lays out a track directory with metadata.yaml and WAV stems and
// returns its path.
func WriteTrack(t testing.TB, splitDir, name string, sampleRate int, stems ...StemSpec) string {
	t.Helper()

	trackDir := filepath.Join(splitDir, name)
	var meta strings.Builder
	meta.WriteString("UUID: " + name + "\naudio_dir: stems\nstems:\n")
	for _, stem := range stems {
		meta.WriteString("  " + stem.ID + ":\n")
		meta.WriteString("    audio_rendered: " + boolText(!stem.Unrendered) + "\n")
		meta.WriteString("    inst_class: " + stem.InstClass + "\n")
		meta.WriteString("    is_drum: " + boolText(stem.IsDrum) + "\n")
		meta.WriteString("    program_num: " + strconv.Itoa(stem.Program) + "\n")
	}
	WriteFile(t, filepath.Join(trackDir, "metadata.yaml"), meta.String())

	if err := os.MkdirAll(filepath.Join(trackDir, "stems"), 0o755); err != nil {
		t.Fatalf("mkdir stems: %v", err)
	}
	for _, stem := range stems {
		if stem.Samples == nil {
			continue
		}
		WriteWAV(t, filepath.Join(trackDir, "stems", stem.ID+".wav"), sampleRate, stem.Samples)
	}
	return trackDir
}

func boolText(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
