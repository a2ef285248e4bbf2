package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Dataset describes where the Slakh2100 splits live and how tracks are found.
type Dataset struct {
	Root              string   `toml:"root"`
	Splits            []string `toml:"splits"`
	TrackPrefix       string   `toml:"track_prefix"`
	StemExtension     string   `toml:"stem_extension"`
	IncludeUnrendered bool     `toml:"include_unrendered"`
}

// Output contains destinations for generated label files and features.
type Output struct {
	Dir        string `toml:"dir"`
	FeaturesDB string `toml:"features_db"`
	MinFreeMiB int    `toml:"min_free_mib"`
}

// Labels contains configuration for categorical stem labels.
type Labels struct {
	// GroupMapping is a flat "key: Group" file. Empty selects the built-in mapping.
	GroupMapping string `toml:"group_mapping"`
	DrumGroup    string `toml:"drum_group"`
	UnknownLabel string `toml:"unknown_label"`
}

// Activity contains the energy segmentation parameters.
type Activity struct {
	SampleRate    int     `toml:"sample_rate"`
	FrameLength   int     `toml:"frame_length"`
	HopLength     int     `toml:"hop_length"`
	Threshold     float64 `toml:"threshold"`
	MaxGapSeconds float64 `toml:"max_gap_seconds"`
	Precision     int     `toml:"precision"`
}

// Features contains the Mel-spectrogram patch parameters.
type Features struct {
	NFFT              int     `toml:"n_fft"`
	HopLength         int     `toml:"hop_length"`
	NMels             int     `toml:"n_mels"`
	PatchFrames       int     `toml:"patch_frames"`
	MaxPatchesPerStem int     `toml:"max_patches_per_stem"`
	TopDB             float64 `toml:"top_db"`
	// SilenceDB drops patches whose loudest bin is at or below this level.
	SilenceDB float64 `toml:"silence_db"`
}

// Workers controls the per-track worker pool.
type Workers struct {
	Count int `toml:"count"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for slakhprep.
//
// Configuration sections by subsystem:
//   - Dataset: dataset root, split names, and track discovery rules
//   - Output: label file directory and feature database
//   - Labels: group mapping and fallback labels
//   - Activity: RMS envelope and segmentation thresholds
//   - Features: Mel-spectrogram and patch extraction
//   - Workers: worker pool size
//   - Logging: log format, level, and optional log directory
type Config struct {
	Dataset  Dataset  `toml:"dataset"`
	Output   Output   `toml:"output"`
	Labels   Labels   `toml:"labels"`
	Activity Activity `toml:"activity"`
	Features Features `toml:"features"`
	Workers  Workers  `toml:"workers"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slakhprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Output.Dir}
	if c.Logging.Dir != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SplitDir returns the directory holding the tracks of the named split.
func (c *Config) SplitDir(split string) string {
	return filepath.Join(c.Dataset.Root, split)
}

// OutputPath returns the absolute path of a generated file inside the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}

// FeaturesDBPath returns the feature database location. Relative values are
// resolved against the output directory.
func (c *Config) FeaturesDBPath() string {
	if filepath.IsAbs(c.Output.FeaturesDB) {
		return c.Output.FeaturesDB
	}
	return filepath.Join(c.Output.Dir, c.Output.FeaturesDB)
}

// StemExtensions returns the audio extensions accepted as stems, primary first.
func (c *Config) StemExtensions() []string {
	exts := []string{"." + c.Dataset.StemExtension}
	for _, ext := range []string{".flac", ".wav"} {
		if ext != exts[0] {
			exts = append(exts, ext)
		}
	}
	return exts
}

func expandPath(pathValue string) (string, error) {
	cleaned, err := expandHome(pathValue)
	if err != nil || cleaned == "" {
		return cleaned, err
	}
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// expandHome resolves a leading "~" and cleans the path. Relative paths stay
// relative.
func expandHome(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
