package prep

import (
	"context"
	"errors"
	"fmt"
	"io"

	"slakhprep/internal/activity"
	"slakhprep/internal/audio"
	"slakhprep/internal/batch"
	"slakhprep/internal/dataset"
	"slakhprep/internal/labels"
	"slakhprep/internal/logging"
)

// TimestampsOutputName returns the per-split activity listing file name.
func TimestampsOutputName(split string) string {
	return "raw_timestamps_" + split + ".txt"
}

type timestampBlock struct {
	text   string
	stems  int
	failed int
}

// Timestamps writes the raw activity segments of every stem audio file in
// split. Tracks without a stems directory are skipped; a stem that fails to
// decode is logged and left out of its track block.
func (s *Service) Timestamps(ctx context.Context, split string) (*Result, error) {
	run := s.beginRun(ctx, split, "timestamps")
	run.result.Output = s.cfg.OutputPath(TimestampsOutputName(split))
	opts := s.activityOptions()

	tracks, err := s.listTracks(split)
	if err != nil {
		return run.finish(err)
	}
	run.result.Tracks = len(tracks)
	run.logger.Info("detecting stem activity",
		logging.Int("tracks", len(tracks)),
		logging.Int("workers", s.cfg.Workers.Count),
		logging.Float64("threshold", opts.Threshold),
	)

	progress := s.newProgress(run.logger, "timestamps "+split, len(tracks))
	defer progress.Finish()

	digest, err := writeTextOutput(run.result.Output, func(w io.StringWriter) error {
		return batch.Run(run.ctx, tracks, s.cfg.Workers.Count,
			func(ctx context.Context, track dataset.Track) (*timestampBlock, error) {
				return s.trackTimestamps(ctx, run, track, opts)
			},
			func(_ dataset.Track, block *timestampBlock) error {
				progress.Add(1)
				if block == nil {
					run.result.Skipped++
					return nil
				}
				if _, err := w.WriteString(block.text); err != nil {
					return fmt.Errorf("write track block: %w", err)
				}
				run.result.Written++
				run.result.Stems += block.stems
				run.result.Failed += block.failed
				return nil
			},
		)
	})
	run.result.Digest = digest
	return run.finish(err)
}

func (s *Service) activityOptions() activity.Options {
	a := s.cfg.Activity
	return activity.Options{
		FrameLength: a.FrameLength,
		HopLength:   a.HopLength,
		Threshold:   a.Threshold,
		MaxGap:      a.MaxGapSeconds,
		Precision:   a.Precision,
	}
}

func (s *Service) trackTimestamps(ctx context.Context, run *runScope, track dataset.Track, opts activity.Options) (*timestampBlock, error) {
	logger := run.logger.With(logging.String(logging.FieldTrack, track.Name))

	// Metadata only relocates the stems directory; its absence is not fatal here.
	meta, err := dataset.LoadMetadata(track.Path)
	if err != nil && !errors.Is(err, dataset.ErrMetadataMissing) {
		logger.Warn("metadata unreadable; using default stems directory", logging.Error(err))
	}

	files, err := track.StemFiles(meta, s.cfg.StemExtensions())
	if err != nil {
		if errors.Is(err, dataset.ErrStemsMissing) {
			logger.Debug("skipping track without stems directory")
			return nil, nil
		}
		return nil, err
	}

	block := &timestampBlock{}
	entries := make([]labels.Entry, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := audio.Load(file.Path, s.cfg.Activity.SampleRate)
		if err != nil {
			logger.Warn("stem decode failed", logging.String(logging.FieldStem, file.Name), logging.Error(err))
			block.failed++
			continue
		}
		segments := activity.Detect(sig.Samples, sig.SampleRate, opts)
		entries = append(entries, labels.Entry{Name: file.Name, Value: activity.FormatSegments(segments)})
		block.stems++
		logger.Debug("stem activity",
			logging.String(logging.FieldStem, file.Name),
			logging.Int("segments", len(segments)),
			logging.Duration("duration", sig.Duration()),
		)
	}
	block.text = labels.FormatTrack(track.Path, entries)
	return block, nil
}
