package prep

import (
	"context"
	"fmt"
	"io"

	"slakhprep/internal/batch"
	"slakhprep/internal/dataset"
	"slakhprep/internal/labels"
	"slakhprep/internal/logging"
)

type categoryBlock struct {
	text  string
	stems int
}

// Categories writes the label listing of split for mode. Tracks without
// metadata or without any listed stem produce no block.
func (s *Service) Categories(ctx context.Context, split string, mode labels.Mode) (*Result, error) {
	run := s.beginRun(ctx, split, "categories")
	run.result.Output = s.cfg.OutputPath(mode.OutputName(split))
	labeler := s.Labeler(mode)

	tracks, err := s.listTracks(split)
	if err != nil {
		return run.finish(err)
	}
	run.result.Tracks = len(tracks)
	run.logger.Info("labelling tracks",
		logging.String("mode", string(mode)),
		logging.Int("tracks", len(tracks)),
		logging.String("mapping", s.mapping.Source()),
	)

	progress := s.newProgress(run.logger, fmt.Sprintf("%s %s", mode, split), len(tracks))
	defer progress.Finish()

	digest, err := writeTextOutput(run.result.Output, func(w io.StringWriter) error {
		return batch.Run(run.ctx, tracks, s.cfg.Workers.Count,
			func(ctx context.Context, track dataset.Track) (*categoryBlock, error) {
				meta, err := loadMetadata(ctx, run.logger, track)
				if err != nil || meta == nil {
					return nil, err
				}
				entries := labeler.Entries(meta)
				if len(entries) == 0 {
					return nil, nil
				}
				return &categoryBlock{text: labels.FormatTrack(track.Path, entries), stems: len(entries)}, nil
			},
			func(_ dataset.Track, block *categoryBlock) error {
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
				return nil
			},
		)
	})
	run.result.Digest = digest
	return run.finish(err)
}
