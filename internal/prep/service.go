package prep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"slakhprep/internal/batch"
	"slakhprep/internal/config"
	"slakhprep/internal/dataset"
	"slakhprep/internal/fileutil"
	"slakhprep/internal/labels"
	"slakhprep/internal/logging"
)

// ErrOutputLocked indicates another run is writing the same output.
var ErrOutputLocked = fileutil.ErrLocked

// Result summarises one operation over one split.
type Result struct {
	RunID  string
	Split  string
	Output string
	// Tracks is the number of track directories found.
	Tracks int
	// Written counts tracks that produced output.
	Written int
	// Skipped counts tracks without metadata, stems, or labelled stems.
	Skipped int
	// Stems counts stem lines or stems stored.
	Stems int
	// Failed counts stems that could not be decoded.
	Failed  int
	Patches int
	Digest  string
	Elapsed time.Duration
}

// Service runs preprocessing operations against one configuration.
type Service struct {
	cfg            *config.Config
	logger         *slog.Logger
	mapping        *labels.Mapping
	progressWriter io.Writer
}

// Option customises a Service.
type Option func(*Service)

// WithProgressWriter sets where progress bars are drawn. Non-terminal writers
// fall back to sampled progress log lines.
func WithProgressWriter(w io.Writer) Option {
	return func(s *Service) {
		s.progressWriter = w
	}
}

// New constructs a Service, loading the configured group mapping.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("prep: config is required")
	}
	mapping, err := labels.LoadMapping(cfg.Labels.GroupMapping)
	if err != nil {
		return nil, fmt.Errorf("load group mapping: %w", err)
	}
	s := &Service{
		cfg:            cfg,
		logger:         logging.NewComponentLogger(logger, "prep"),
		mapping:        mapping.WithFallbacks(cfg.Labels.DrumGroup, cfg.Labels.UnknownLabel),
		progressWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mapping returns the group mapping in use.
func (s *Service) Mapping() *labels.Mapping {
	return s.mapping
}

// Labeler returns a labeler for mode configured from the dataset settings.
func (s *Service) Labeler(mode labels.Mode) labels.Labeler {
	return labels.Labeler{
		Mode:              mode,
		Mapping:           s.mapping,
		Unknown:           s.cfg.Labels.UnknownLabel,
		Extension:         s.cfg.Dataset.StemExtension,
		IncludeUnrendered: s.cfg.Dataset.IncludeUnrendered,
	}
}

type runScope struct {
	ctx    context.Context
	logger *slog.Logger
	result *Result
	start  time.Time
}

func (s *Service) beginRun(ctx context.Context, split, operation string) *runScope {
	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithSplit(ctx, split), runID)
	logger := logging.WithContext(ctx, s.logger).With(logging.String("operation", operation))
	return &runScope{
		ctx:    ctx,
		logger: logger,
		result: &Result{RunID: runID, Split: split},
		start:  time.Now(),
	}
}

func (r *runScope) finish(err error) (*Result, error) {
	r.result.Elapsed = time.Since(r.start)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("run failed", logging.Error(err), logging.Duration("elapsed", r.result.Elapsed))
		}
		return r.result, err
	}
	r.logger.Info("run complete",
		logging.String("output", r.result.Output),
		logging.Int("tracks", r.result.Tracks),
		logging.Int("written", r.result.Written),
		logging.Int("skipped", r.result.Skipped),
		logging.Int("stems", r.result.Stems),
		logging.Int("failed", r.result.Failed),
		logging.Duration("elapsed", r.result.Elapsed),
	)
	return r.result, nil
}

func (s *Service) listTracks(split string) ([]dataset.Track, error) {
	tracks, err := dataset.ListTracks(s.cfg.SplitDir(split), s.cfg.Dataset.TrackPrefix)
	if err != nil {
		return nil, fmt.Errorf("list tracks of %s: %w", split, err)
	}
	return tracks, nil
}

func (s *Service) newProgress(logger *slog.Logger, label string, total int) batch.Progress {
	return batch.NewProgress(s.progressWriter, logger, label, total)
}

// writeTextOutput locks path, streams blocks into an atomic temp file via
// produce, and commits it on success.
func writeTextOutput(path string, produce func(w io.StringWriter) error) (string, error) {
	lock, err := fileutil.TryLock(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.Unlock() }()

	out, err := fileutil.CreateAtomic(path)
	if err != nil {
		return "", err
	}
	if err := produce(out); err != nil {
		out.Abort()
		return "", err
	}
	if err := out.Commit(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return out.Sum(), nil
}

// loadMetadata reads a track's metadata. A nil result with nil error means
// the track has no metadata and should be skipped.
func loadMetadata(ctx context.Context, logger *slog.Logger, track dataset.Track) (*dataset.Metadata, error) {
	meta, err := dataset.LoadMetadata(track.Path)
	if err != nil {
		if errors.Is(err, dataset.ErrMetadataMissing) {
			logger.DebugContext(ctx, "skipping track without metadata", logging.String(logging.FieldTrack, track.Name))
			return nil, nil
		}
		return nil, err
	}
	return meta, nil
}
