package prep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"slakhprep/internal/batch"
	"slakhprep/internal/dataset"
	"slakhprep/internal/featurestore"
	"slakhprep/internal/fileutil"
	"slakhprep/internal/labels"
	"slakhprep/internal/logging"
)

// SplitSummary counts what a split contains without decoding audio.
type SplitSummary struct {
	Split           string
	Tracks          int
	MissingMetadata int
	Stems           int
	Rendered        int
	Drums           int
	// Groups counts rendered stems per coarse group.
	Groups map[string]int
}

// SortedGroups returns the group names of the summary in name order.
func (s SplitSummary) SortedGroups() []string {
	names := make([]string, 0, len(s.Groups))
	for name := range s.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summarize reads the metadata of every track in split.
func (s *Service) Summarize(ctx context.Context, split string) (*SplitSummary, error) {
	tracks, err := s.listTracks(split)
	if err != nil {
		return nil, err
	}
	summary := &SplitSummary{Split: split, Tracks: len(tracks), Groups: make(map[string]int)}
	logger := s.logger.With(logging.String(logging.FieldSplit, split))
	err = batch.Run(ctx, tracks, s.cfg.Workers.Count,
		func(ctx context.Context, track dataset.Track) (*dataset.Metadata, error) {
			return loadMetadata(ctx, logger, track)
		},
		func(_ dataset.Track, meta *dataset.Metadata) error {
			if meta == nil {
				summary.MissingMetadata++
				return nil
			}
			summary.Stems += len(meta.Stems)
			for _, stem := range meta.RenderedStems() {
				summary.Rendered++
				if stem.IsDrum {
					summary.Drums++
				}
				summary.Groups[s.mapping.Group(stem)]++
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// StemInfo describes one stem of an inspected track.
type StemInfo struct {
	ID        string
	File      string
	InstClass string
	Program   string
	Group     string
	Rendered  bool
	IsDrum    bool
	Plugin    string
}

// Inspect lists the stems of the track directory at path with every label
// kind and the audio file found for each.
func (s *Service) Inspect(path string) (*dataset.Metadata, []StemInfo, error) {
	track := dataset.Track{Name: filepath.Base(path), Path: path}
	meta, err := dataset.LoadMetadata(track.Path)
	if err != nil {
		return nil, nil, err
	}
	// A missing stems directory leaves File empty.
	files, _ := track.StemFiles(meta, s.cfg.StemExtensions())
	byID := make(map[string]string, len(files))
	for _, file := range files {
		if _, seen := byID[file.ID]; !seen {
			byID[file.ID] = file.Name
		}
	}

	programs := s.Labeler(labels.ModeProgram)
	classes := s.Labeler(labels.ModeClass)
	infos := make([]StemInfo, 0, len(meta.Stems))
	for _, stem := range meta.Stems {
		infos = append(infos, StemInfo{
			ID:        stem.ID,
			File:      byID[stem.ID],
			InstClass: classes.Label(stem),
			Program:   programs.Label(stem),
			Group:     s.mapping.Group(stem),
			Rendered:  stem.AudioRendered,
			IsDrum:    stem.IsDrum,
			Plugin:    stem.PluginName,
		})
	}
	return meta, infos, nil
}

// FeatureStats returns per-group patch counts of the latest completed
// feature run for split.
func (s *Service) FeatureStats(ctx context.Context, split string) ([]featurestore.GroupCount, error) {
	path := s.cfg.FeaturesDBPath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("feature store: %w", err)
	}
	store, err := featurestore.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GroupCounts(ctx, split)
}

// PruneFeatures removes superseded feature runs of split.
func (s *Service) PruneFeatures(ctx context.Context, split string) (int, error) {
	path := s.cfg.FeaturesDBPath()
	lock, err := fileutil.TryLock(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := featurestore.Open(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.PruneRuns(ctx, split)
}
