package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"slakhprep/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SLAKHPREP_DATASET_ROOT", "~/data/slakh")
	t.Setenv("SLAKHPREP_OUTPUT_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, "data", "slakh")
	if cfg.Dataset.Root != wantRoot {
		t.Fatalf("unexpected dataset root: got %q want %q", cfg.Dataset.Root, wantRoot)
	}
	if !filepath.IsAbs(cfg.Output.Dir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Output.Dir)
	}
	if got := strings.Join(cfg.Dataset.Splits, ","); got != "train,validation,test" {
		t.Fatalf("unexpected splits: %q", got)
	}
	if cfg.Workers.Count != 6 {
		t.Fatalf("expected 6 workers by default, got %d", cfg.Workers.Count)
	}
	if cfg.Activity.Threshold != 0.005 {
		t.Fatalf("unexpected activity threshold: %v", cfg.Activity.Threshold)
	}
	if cfg.Activity.MaxGapSeconds != 0.3 {
		t.Fatalf("unexpected max gap: %v", cfg.Activity.MaxGapSeconds)
	}
	if cfg.Features.NMels != 128 || cfg.Features.PatchFrames != 128 {
		t.Fatalf("unexpected feature shape: %d x %d", cfg.Features.NMels, cfg.Features.PatchFrames)
	}
	if cfg.FeaturesDBPath() != filepath.Join(cfg.Output.Dir, "features.db") {
		t.Fatalf("unexpected features db path: %q", cfg.FeaturesDBPath())
	}
}

func TestLoadKeepsRelativeDatasetRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLAKHPREP_DATASET_ROOT", "./slakh2100_flac_redux/")
	t.Setenv("SLAKHPREP_OUTPUT_DIR", "out")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Dataset.Root != "slakh2100_flac_redux" {
		t.Fatalf("expected relative cleaned root, got %q", cfg.Dataset.Root)
	}
	if got := cfg.SplitDir("train"); got != filepath.Join("slakh2100_flac_redux", "train") {
		t.Fatalf("unexpected split dir: %q", got)
	}
	if !filepath.IsAbs(cfg.Output.Dir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Output.Dir)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	t.Setenv("SLAKHPREP_DATASET_ROOT", "")
	t.Setenv("SLAKHPREP_OUTPUT_DIR", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "slakhprep.toml")
	content := `
[dataset]
root = "/data/slakh"
splits = [" train ", "test", "train", ""]
stem_extension = ".WAV"

[output]
dir = "/tmp/labels"
features_db = "/var/lib/slakh/features.db"

[workers]
count = 2

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Dataset.Root != "/data/slakh" {
		t.Fatalf("unexpected root: %q", cfg.Dataset.Root)
	}
	if got := strings.Join(cfg.Dataset.Splits, ","); got != "train,test" {
		t.Fatalf("expected deduplicated splits, got %q", got)
	}
	if cfg.Dataset.StemExtension != "wav" {
		t.Fatalf("expected normalized extension, got %q", cfg.Dataset.StemExtension)
	}
	if exts := cfg.StemExtensions(); len(exts) != 2 || exts[0] != ".wav" || exts[1] != ".flac" {
		t.Fatalf("unexpected stem extensions: %v", exts)
	}
	if cfg.Workers.Count != 2 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.FeaturesDBPath() != "/var/lib/slakh/features.db" {
		t.Fatalf("expected absolute features db untouched, got %q", cfg.FeaturesDBPath())
	}
	if cfg.SplitDir("train") != filepath.Join("/data/slakh", "train") {
		t.Fatalf("unexpected split dir: %q", cfg.SplitDir("train"))
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[dataset]\nrooot = \"/x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error for unknown field")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"no workers", func(c *config.Config) { c.Workers.Count = 0 }, "workers.count"},
		{"hop longer than frame", func(c *config.Config) { c.Activity.HopLength = 4096 }, "activity.hop_length"},
		{"negative threshold", func(c *config.Config) { c.Activity.Threshold = -1 }, "activity.threshold"},
		{"odd fft", func(c *config.Config) { c.Features.NFFT = 2047 }, "features.n_fft"},
		{"too many mels", func(c *config.Config) { c.Features.NMels = 4096 }, "features.n_mels"},
		{"nested split", func(c *config.Config) { c.Dataset.Splits = []string{"a/b"} }, "dataset.splits"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.Dir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if parsed.Workers.Count != 6 {
		t.Fatalf("unexpected sample worker count: %d", parsed.Workers.Count)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "[activity]") || !strings.Contains(encoded, "threshold = 0.005") {
		t.Fatalf("unexpected encoded config:\n%s", encoded)
	}
}
