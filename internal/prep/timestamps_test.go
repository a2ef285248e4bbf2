package prep_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slakhprep/internal/activity"
	"slakhprep/internal/testsupport"
)

func segmentsFor(t *testing.T, output, stem string) []activity.Segment {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		name, value, ok := strings.Cut(line, ": ")
		if !ok || name != stem {
			continue
		}
		segments, err := activity.ParseSegments(value)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		return segments
	}
	t.Fatalf("stem %s not found in:\n%s", stem, output)
	return nil
}

func TestTimestamps(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStemExtension("wav"),
		testsupport.WithSampleRate(testRate),
	)
	splitDir := cfg.SplitDir("train")
	bursts := testsupport.Concat(
		testsupport.Tone(testRate, 0.5, 440, 0.5),
		testsupport.Silence(testRate, 1.0),
		testsupport.Tone(testRate, 0.5, 440, 0.5),
	)
	track := testsupport.WriteTrack(t, splitDir, "Track00001", testRate,
		testsupport.StemSpec{ID: "S00", InstClass: "Piano", Program: 0, Samples: bursts},
		testsupport.StemSpec{ID: "S01", InstClass: "Bass", Program: 33, Samples: testsupport.Silence(testRate, 1.0)},
	)
	// Undecodable stem is logged and omitted.
	testsupport.WriteFile(t, filepath.Join(track, "stems", "S02.wav"), "not a wav file")
	// Non-audio files are ignored.
	testsupport.WriteFile(t, filepath.Join(track, "stems", "notes.txt"), "ignored")
	// Track without a stems directory is skipped.
	testsupport.WriteFile(t, filepath.Join(splitDir, "Track00002", "metadata.yaml"), "stems: {}\n")

	svc := newService(t, cfg)
	res, err := svc.Timestamps(context.Background(), "train")
	if err != nil {
		t.Fatalf("Timestamps failed: %v", err)
	}
	if res.Tracks != 2 || res.Written != 1 || res.Skipped != 1 || res.Stems != 2 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if filepath.Base(res.Output) != "raw_timestamps_train.txt" {
		t.Fatalf("unexpected output %s", res.Output)
	}

	output := readFile(t, res.Output)
	if !strings.HasPrefix(output, "Track: "+track+"\n") {
		t.Fatalf("expected track header, got:\n%s", output)
	}
	if strings.Contains(output, "S02.wav") || strings.Contains(output, "notes.txt") {
		t.Fatalf("unexpected stem lines:\n%s", output)
	}
	if !strings.Contains(output, "S01.wav: []\n") {
		t.Fatalf("expected empty segment list for silent stem:\n%s", output)
	}

	segments := segmentsFor(t, output, "S00.wav")
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %v", segments)
	}
	if segments[0].Start != 0 {
		t.Fatalf("expected first segment to start at 0, got %v", segments[0])
	}
	if segments[0].End < 0.4 || segments[0].End > 0.7 {
		t.Fatalf("first segment end out of range: %v", segments[0])
	}
	if segments[1].Start < 1.3 || segments[1].Start > 1.5 {
		t.Fatalf("second segment start out of range: %v", segments[1])
	}
	if segments[1].End < 1.9 {
		t.Fatalf("second segment end out of range: %v", segments[1])
	}
}

func TestTimestampsWorkerCountDoesNotChangeOutput(t *testing.T) {
	var outputs []string
	for _, workers := range []int{1, 4} {
		cfg := testsupport.NewConfig(t,
			testsupport.WithStemExtension("wav"),
			testsupport.WithSampleRate(testRate),
			testsupport.WithWorkers(workers),
		)
		for _, name := range []string{"Track00003", "Track00001", "Track00002", "Track00004"} {
			testsupport.WriteTrack(t, cfg.SplitDir("test"), name, testRate,
				testsupport.StemSpec{ID: "S00", InstClass: "Piano", Samples: testsupport.Tone(testRate, 0.3, 220, 0.3)},
			)
		}
		res, err := newService(t, cfg).Timestamps(context.Background(), "test")
		if err != nil {
			t.Fatalf("Timestamps failed: %v", err)
		}
		// Strip the per-test temp root so outputs are comparable.
		outputs = append(outputs, strings.ReplaceAll(readFile(t, res.Output), cfg.Dataset.Root, ""))
	}
	if outputs[0] != outputs[1] {
		t.Fatalf("output differs by worker count:\n%s\n---\n%s", outputs[0], outputs[1])
	}
	if strings.Index(outputs[0], "Track00001") > strings.Index(outputs[0], "Track00002") {
		t.Fatalf("expected tracks in name order:\n%s", outputs[0])
	}
}

func TestTimestampsKeepsPreviousOutputOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStemExtension("wav"))
	path := cfg.OutputPath("raw_timestamps_missing.txt")
	testsupport.WriteFile(t, path, "previous\n")

	if _, err := newService(t, cfg).Timestamps(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing split")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "previous\n" {
		t.Fatalf("expected previous output to survive, got %q (%v)", data, err)
	}
}
