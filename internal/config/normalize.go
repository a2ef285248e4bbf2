package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeLabels()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv("SLAKHPREP_DATASET_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Dataset.Root = value
	}
	if value, ok := os.LookupEnv("SLAKHPREP_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Output.Dir = value
	}
}

func (c *Config) normalizePaths() error {
	// dataset.root keeps its relative form since it prefixes every
	// "Track: <path>" header.
	pathFields := []struct {
		name   string
		value  *string
		expand func(string) (string, error)
	}{
		{"dataset.root", &c.Dataset.Root, expandHome},
		{"output.dir", &c.Output.Dir, expandPath},
		{"labels.group_mapping", &c.Labels.GroupMapping, expandPath},
		{"logging.dir", &c.Logging.Dir, expandPath},
	}
	for _, field := range pathFields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		expanded, err := field.expand(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Output.FeaturesDB = strings.TrimSpace(c.Output.FeaturesDB)
	if strings.HasPrefix(c.Output.FeaturesDB, "~") {
		expanded, err := expandPath(c.Output.FeaturesDB)
		if err != nil {
			return fmt.Errorf("output.features_db: %w", err)
		}
		c.Output.FeaturesDB = expanded
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.TrackPrefix = strings.TrimSpace(c.Dataset.TrackPrefix)
	c.Dataset.StemExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Dataset.StemExtension), "."))

	splits := make([]string, 0, len(c.Dataset.Splits))
	seen := make(map[string]struct{}, len(c.Dataset.Splits))
	for _, split := range c.Dataset.Splits {
		split = strings.TrimSpace(split)
		if split == "" {
			continue
		}
		if _, ok := seen[split]; ok {
			continue
		}
		seen[split] = struct{}{}
		splits = append(splits, split)
	}
	c.Dataset.Splits = splits
}

func (c *Config) normalizeLabels() {
	c.Labels.DrumGroup = strings.TrimSpace(c.Labels.DrumGroup)
	c.Labels.UnknownLabel = strings.TrimSpace(c.Labels.UnknownLabel)
	if c.Labels.UnknownLabel == "" {
		c.Labels.UnknownLabel = defaultUnknownLabel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
