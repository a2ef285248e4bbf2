package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MetadataFile is the per-track metadata file name.
const MetadataFile = "metadata.yaml"

// DefaultAudioDir is used when metadata does not name the stems directory.
const DefaultAudioDir = "stems"

// Track is one multi-track recording directory inside a split.
type Track struct {
	Name string
	Path string
}

// ListTracks returns the directories in splitDir whose names start with prefix,
// sorted by name.
func ListTracks(splitDir, prefix string) ([]Track, error) {
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		return nil, fmt.Errorf("read split directory: %w", err)
	}
	tracks := make([]Track, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !entry.IsDir() {
			info, err := os.Stat(filepath.Join(splitDir, name))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		tracks = append(tracks, Track{Name: name, Path: filepath.Join(splitDir, name)})
	}
	slices.SortFunc(tracks, func(a, b Track) int { return strings.Compare(a.Name, b.Name) })
	return tracks, nil
}

// MetadataPath returns the location of the track's metadata.yaml.
func (t Track) MetadataPath() string {
	return filepath.Join(t.Path, MetadataFile)
}

// StemsDir returns the track's stem audio directory. The metadata audio_dir
// value wins when present.
func (t Track) StemsDir(meta *Metadata) string {
	dir := DefaultAudioDir
	if meta != nil && strings.TrimSpace(meta.AudioDir) != "" {
		dir = strings.TrimSpace(meta.AudioDir)
	}
	return filepath.Join(t.Path, dir)
}

// StemFile is an audio file inside a track's stems directory.
type StemFile struct {
	// Name is the file name, e.g. "S00.flac".
	Name string
	Path string
	// ID is the file name without its extension, e.g. "S00".
	ID string
}

// StemFiles lists the audio files in the stems directory whose extension is
// one of extensions (case-insensitive), sorted by name.
func (t Track) StemFiles(meta *Metadata, extensions []string) ([]StemFile, error) {
	dir := t.StemsDir(meta)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrStemsMissing)
		}
		return nil, fmt.Errorf("read stems directory: %w", err)
	}
	files := make([]StemFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !hasExtension(extensions, ext) {
			continue
		}
		files = append(files, StemFile{
			Name: name,
			Path: filepath.Join(dir, name),
			ID:   strings.TrimSuffix(name, ext),
		})
	}
	slices.SortFunc(files, func(a, b StemFile) int { return strings.Compare(a.Name, b.Name) })
	return files, nil
}

func hasExtension(extensions []string, ext string) bool {
	for _, candidate := range extensions {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}
