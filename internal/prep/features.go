package prep

import (
	"context"
	"errors"
	"fmt"

	"slakhprep/internal/audio"
	"slakhprep/internal/batch"
	"slakhprep/internal/dataset"
	"slakhprep/internal/featurestore"
	"slakhprep/internal/fileutil"
	"slakhprep/internal/labels"
	"slakhprep/internal/logging"
	"slakhprep/internal/melspec"
)

type featureBatch struct {
	patches []featurestore.Patch
	stems   int
	failed  int
}

// Features extracts Mel-spectrogram patches for every listed stem of split
// and stores them, labelled, in the feature store under a new run. Earlier
// runs of the split stay in the store until pruned.
func (s *Service) Features(ctx context.Context, split string) (*Result, error) {
	run := s.beginRun(ctx, split, "features")
	run.result.Output = s.cfg.FeaturesDBPath()

	tracks, err := s.listTracks(split)
	if err != nil {
		return run.finish(err)
	}
	run.result.Tracks = len(tracks)

	lock, err := fileutil.TryLock(run.result.Output)
	if err != nil {
		return run.finish(err)
	}
	defer func() { _ = lock.Unlock() }()

	store, err := featurestore.Open(run.result.Output)
	if err != nil {
		return run.finish(fmt.Errorf("open feature store: %w", err))
	}
	defer store.Close()

	storeRun, err := store.BeginRun(run.ctx, split)
	if err != nil {
		return run.finish(err)
	}
	run.logger = run.logger.With(logging.String("store_run", storeRun.ID))
	run.logger.Info("extracting features",
		logging.Int("tracks", len(tracks)),
		logging.Int("n_mels", s.cfg.Features.NMels),
		logging.Int("patch_frames", s.cfg.Features.PatchFrames),
	)

	opts := s.melOptions()
	classes := s.Labeler(labels.ModeClass)
	progress := s.newProgress(run.logger, "features "+split, len(tracks))
	defer progress.Finish()

	err = batch.Run(run.ctx, tracks, s.cfg.Workers.Count,
		func(ctx context.Context, track dataset.Track) (*featureBatch, error) {
			return s.trackFeatures(ctx, run, split, track, classes, opts)
		},
		func(_ dataset.Track, fb *featureBatch) error {
			progress.Add(1)
			if fb == nil {
				run.result.Skipped++
				return nil
			}
			n, err := store.InsertPatches(run.ctx, storeRun.ID, fb.patches)
			if err != nil {
				return err
			}
			run.result.Written++
			run.result.Stems += fb.stems
			run.result.Failed += fb.failed
			run.result.Patches += n
			return nil
		},
	)

	// The run row is finalised even when the context was cancelled.
	if finishErr := store.FinishRun(context.WithoutCancel(run.ctx), storeRun.ID, err); finishErr != nil && err == nil {
		err = finishErr
	}
	return run.finish(err)
}

func (s *Service) melOptions() melspec.Options {
	f := s.cfg.Features
	return melspec.Options{
		SampleRate: s.cfg.Activity.SampleRate,
		NFFT:       f.NFFT,
		HopLength:  f.HopLength,
		NMels:      f.NMels,
		TopDB:      f.TopDB,
	}
}

func (s *Service) trackFeatures(ctx context.Context, run *runScope, split string, track dataset.Track, classes labels.Labeler, opts melspec.Options) (*featureBatch, error) {
	logger := run.logger.With(logging.String(logging.FieldTrack, track.Name))
	meta, err := loadMetadata(ctx, logger, track)
	if err != nil || meta == nil {
		return nil, err
	}

	files, err := track.StemFiles(meta, s.cfg.StemExtensions())
	if err != nil {
		if errors.Is(err, dataset.ErrStemsMissing) {
			logger.Debug("skipping track without stems directory")
			return nil, nil
		}
		return nil, err
	}
	byID := make(map[string]dataset.StemFile, len(files))
	for _, file := range files {
		if _, seen := byID[file.ID]; !seen {
			byID[file.ID] = file
		}
	}

	fb := &featureBatch{}
	for _, stem := range meta.Stems {
		if !stem.AudioRendered && !s.cfg.Dataset.IncludeUnrendered {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, ok := byID[stem.ID]
		if !ok {
			logger.Debug("stem audio missing", logging.String(logging.FieldStem, stem.ID))
			continue
		}
		sig, err := audio.Load(file.Path, opts.SampleRate)
		if err != nil {
			logger.Warn("stem decode failed", logging.String(logging.FieldStem, file.Name), logging.Error(err))
			fb.failed++
			continue
		}
		spec := melspec.Compute(sig.Samples, opts)
		windows := spec.Patches(s.cfg.Features.PatchFrames, s.cfg.Features.MaxPatchesPerStem, s.cfg.Features.SilenceDB)
		program, hasProgram := stem.Program()
		group := s.mapping.Group(stem)
		class := classes.Label(stem)
		for _, w := range windows {
			p := featurestore.Patch{
				Split:     split,
				Track:     track.Name,
				Stem:      stem.ID,
				InstClass: class,
				Group:     group,
				IsDrum:    stem.IsDrum,
				Offset:    w.Offset,
				NMels:     w.NMels,
				Frames:    w.Frames,
				Data:      w.Data,
			}
			if hasProgram {
				p.Program = &program
			}
			fb.patches = append(fb.patches, p)
		}
		fb.stems++
		logger.Debug("stem features",
			logging.String(logging.FieldStem, stem.ID),
			logging.Int("frames", spec.Frames),
			logging.Int("patches", len(windows)),
		)
	}
	return fb, nil
}
