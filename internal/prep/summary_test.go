package prep_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slakhprep/internal/dataset"
	"slakhprep/internal/testsupport"
)

func TestSummarize(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeLabelTracks(t, cfg)

	summary, err := newService(t, cfg).Summarize(context.Background(), "train")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Tracks != 3 || summary.MissingMetadata != 1 {
		t.Fatalf("unexpected track counts %+v", summary)
	}
	if summary.Stems != 4 || summary.Rendered != 3 || summary.Drums != 1 {
		t.Fatalf("unexpected stem counts %+v", summary)
	}
	groups := summary.SortedGroups()
	want := []string{"Bass", "Drums", "Guitar"}
	if len(groups) != len(want) {
		t.Fatalf("expected groups %v, got %v", want, groups)
	}
	for i := range want {
		if groups[i] != want[i] || summary.Groups[want[i]] != 1 {
			t.Fatalf("expected groups %v with one stem each, got %v", want, summary.Groups)
		}
	}
}

func TestInspect(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStemExtension("wav"))
	track := testsupport.WriteTrack(t, cfg.SplitDir("train"), "Track00001", testRate,
		testsupport.StemSpec{ID: "S00", InstClass: "Strings", Program: 48, Samples: testsupport.Silence(testRate, 0.1)},
		testsupport.StemSpec{ID: "S01", InstClass: "Drums", Program: 128, IsDrum: true, Unrendered: true},
	)

	meta, infos, err := newService(t, cfg).Inspect(track)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if meta.UUID != "Track00001" {
		t.Fatalf("unexpected UUID %q", meta.UUID)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 stems, got %d", len(infos))
	}
	if infos[0].File != "S00.wav" || infos[0].Group != "Strings" || infos[0].Program != "48" || !infos[0].Rendered {
		t.Fatalf("unexpected first stem %+v", infos[0])
	}
	if infos[1].File != "" || infos[1].Group != "Drums" || infos[1].Rendered || !infos[1].IsDrum {
		t.Fatalf("unexpected second stem %+v", infos[1])
	}
}

func TestInspectMissingMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(testsupport.BaseDir(cfg), "Track00009")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := newService(t, cfg).Inspect(dir); !errors.Is(err, dataset.ErrMetadataMissing) {
		t.Fatalf("expected ErrMetadataMissing, got %v", err)
	}
}
