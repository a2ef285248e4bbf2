package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"slakhprep/internal/config"
	"slakhprep/internal/testsupport"
)

const testRate = 8000

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStemExtension("wav"),
		testsupport.WithSampleRate(testRate),
	)
	cfg.Features.NFFT = 512
	cfg.Features.HopLength = 256
	cfg.Features.NMels = 32
	cfg.Features.PatchFrames = 8
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)

	splitDir := cfg.SplitDir("train")
	testsupport.WriteTrack(t, splitDir, "Track00001", testRate,
		testsupport.StemSpec{ID: "S00", InstClass: "Guitar", Program: 25, Samples: testsupport.Tone(testRate, 1, 330, 0.4)},
		testsupport.StemSpec{ID: "S01", InstClass: "Drums", Program: 128, IsDrum: true, Samples: testsupport.Tone(testRate, 1, 80, 0.5)},
	)
	testsupport.WriteTrack(t, splitDir, "Track00002", testRate,
		testsupport.StemSpec{ID: "S00", InstClass: "Bass", Program: 33, Samples: testsupport.Tone(testRate, 1, 55, 0.5)},
	)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd, closeLog := newRootCommand()
	t.Cleanup(func() { _ = closeLog() })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
