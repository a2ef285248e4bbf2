package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat reports a file extension no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Load decodes the file at path into a mono signal at targetRate. A
// targetRate <= 0 keeps the file's native rate.
func Load(path string, targetRate int) (*Signal, error) {
	var (
		sig *Signal
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flac":
		sig, err = decodeFLAC(path)
	case ".wav", ".wave":
		sig, err = decodeWAV(path)
	default:
		return nil, fmt.Errorf("%s: %w (%q)", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if targetRate > 0 && sig.SampleRate != targetRate {
		sig = &Signal{
			Samples:    Resample(sig.Samples, sig.SampleRate, targetRate),
			SampleRate: targetRate,
		}
	}
	return sig, nil
}

func decodeFLAC(path string) (*Signal, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flac: %w", err)
	}
	defer stream.Close()

	nch := int(stream.Info.NChannels)
	if nch == 0 {
		return nil, errors.New("flac stream has no channels")
	}
	channels := make([][]int32, nch)
	if total := stream.Info.NSamples; total > 0 {
		for ch := range channels {
			channels[ch] = make([]int32, 0, total)
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse flac frame: %w", err)
		}
		for ch := 0; ch < nch && ch < len(frame.Subframes); ch++ {
			channels[ch] = append(channels[ch], frame.Subframes[ch].Samples...)
		}
	}

	return &Signal{
		Samples:    downmix(channels, fullScale(int(stream.Info.BitsPerSample))),
		SampleRate: int(stream.Info.SampleRate),
	}, nil
}

func decodeWAV(path string) (*Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("wav audio format %d is not integer PCM", dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav pcm: %w", err)
	}
	return signalFromIntBuffer(buf)
}

func signalFromIntBuffer(buf *goaudio.IntBuffer) (*Signal, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("pcm buffer has no format")
	}
	nch := buf.Format.NumChannels
	if nch <= 0 {
		return nil, errors.New("pcm buffer has no channels")
	}
	frames := len(buf.Data) / nch
	channels := make([][]int32, nch)
	for ch := range channels {
		channels[ch] = make([]int32, frames)
	}
	unsigned := buf.SourceBitDepth == 8
	for i := 0; i < frames*nch; i++ {
		v := buf.Data[i]
		if unsigned {
			v -= 128
		}
		channels[i%nch][i/nch] = int32(v)
	}
	return &Signal{
		Samples:    downmix(channels, fullScale(buf.SourceBitDepth)),
		SampleRate: buf.Format.SampleRate,
	}, nil
}
