package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateActivity(); err != nil {
		return err
	}
	if err := c.validateFeatures(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Root == "" {
		return errors.New("dataset.root must be set (or export SLAKHPREP_DATASET_ROOT)")
	}
	if c.Dataset.TrackPrefix == "" {
		return errors.New("dataset.track_prefix must be set")
	}
	if c.Dataset.StemExtension == "" {
		return errors.New("dataset.stem_extension must be set")
	}
	if strings.ContainsAny(c.Dataset.StemExtension, `/\`) {
		return fmt.Errorf("dataset.stem_extension %q must not contain path separators", c.Dataset.StemExtension)
	}
	for _, split := range c.Dataset.Splits {
		if strings.ContainsAny(split, `/\`) || split == "." || split == ".." {
			return fmt.Errorf("dataset.splits: %q is not a plain directory name", split)
		}
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	if c.Output.MinFreeMiB < 0 {
		return errors.New("output.min_free_mib must be >= 0")
	}
	return nil
}

func (c *Config) validateActivity() error {
	a := c.Activity
	if a.SampleRate <= 0 {
		return errors.New("activity.sample_rate must be positive")
	}
	if a.FrameLength <= 0 || a.HopLength <= 0 {
		return errors.New("activity.frame_length and activity.hop_length must be positive")
	}
	if a.HopLength > a.FrameLength {
		return errors.New("activity.hop_length must not exceed activity.frame_length")
	}
	if a.Threshold < 0 {
		return errors.New("activity.threshold must be >= 0")
	}
	if a.MaxGapSeconds < 0 {
		return errors.New("activity.max_gap_seconds must be >= 0")
	}
	if a.Precision < 0 || a.Precision > 6 {
		return errors.New("activity.precision must be between 0 and 6")
	}
	return nil
}

func (c *Config) validateFeatures() error {
	f := c.Features
	if f.NFFT < 2 || f.NFFT%2 != 0 {
		return errors.New("features.n_fft must be an even number >= 2")
	}
	if f.HopLength <= 0 {
		return errors.New("features.hop_length must be positive")
	}
	if f.NMels <= 0 || f.NMels > f.NFFT/2+1 {
		return fmt.Errorf("features.n_mels must be between 1 and %d", f.NFFT/2+1)
	}
	if f.PatchFrames <= 0 {
		return errors.New("features.patch_frames must be positive")
	}
	if f.MaxPatchesPerStem < 0 {
		return errors.New("features.max_patches_per_stem must be >= 0")
	}
	if f.TopDB <= 0 {
		return errors.New("features.top_db must be positive")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
