package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSampleAndRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target path in output:\n%s", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}

	stdout, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate failed on sample: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid") || !strings.Contains(stdout, "10 groups") {
		t.Fatalf("unexpected validate output:\n%s", stdout)
	}
}

func TestConfigValidateRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[workers]\ncount = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{env.configPath, "[dataset]", "[activity]", "sample_rate = 8000"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in:\n%s", want, stdout)
		}
	}
}

func TestLogLevelFlagValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--log-level", "loud", "summary", "train"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--log-level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}
