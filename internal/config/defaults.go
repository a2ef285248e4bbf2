package config

const (
	defaultConfigPath        = "~/.config/slakhprep/config.toml"
	defaultDatasetRoot       = "slakh2100_flac_redux"
	defaultTrackPrefix       = "Track"
	defaultStemExtension     = "flac"
	defaultOutputDir         = "."
	defaultFeaturesDB        = "features.db"
	defaultMinFreeMiB        = 64
	defaultDrumGroup         = "Drums"
	defaultUnknownLabel      = "Unknown"
	defaultSampleRate        = 44100
	defaultFrameLength       = 2048
	defaultHopLength         = 512
	defaultActivityThreshold = 0.005
	defaultMaxGapSeconds     = 0.3
	defaultPrecision         = 2
	defaultNMels             = 128
	defaultPatchFrames       = 128
	defaultMaxPatches        = 8
	defaultTopDB             = 80.0
	defaultSilenceDB         = -60.0
	defaultWorkerCount       = 6
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Dataset: Dataset{
			Root:          defaultDatasetRoot,
			Splits:        []string{"train", "validation", "test"},
			TrackPrefix:   defaultTrackPrefix,
			StemExtension: defaultStemExtension,
		},
		Output: Output{
			Dir:        defaultOutputDir,
			FeaturesDB: defaultFeaturesDB,
			MinFreeMiB: defaultMinFreeMiB,
		},
		Labels: Labels{
			DrumGroup:    defaultDrumGroup,
			UnknownLabel: defaultUnknownLabel,
		},
		Activity: Activity{
			SampleRate:    defaultSampleRate,
			FrameLength:   defaultFrameLength,
			HopLength:     defaultHopLength,
			Threshold:     defaultActivityThreshold,
			MaxGapSeconds: defaultMaxGapSeconds,
			Precision:     defaultPrecision,
		},
		Features: Features{
			NFFT:              defaultFrameLength,
			HopLength:         defaultHopLength,
			NMels:             defaultNMels,
			PatchFrames:       defaultPatchFrames,
			MaxPatchesPerStem: defaultMaxPatches,
			TopDB:             defaultTopDB,
			SilenceDB:         defaultSilenceDB,
		},
		Workers: Workers{
			Count: defaultWorkerCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
