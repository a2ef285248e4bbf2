package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Stem describes one instrument stem as recorded in metadata.yaml.
type Stem struct {
	ID              string `yaml:"-"`
	InstClass       string `yaml:"inst_class"`
	ProgramNum      *int   `yaml:"program_num"`
	AudioRendered   bool   `yaml:"audio_rendered"`
	IsDrum          bool   `yaml:"is_drum"`
	MIDIProgramName string `yaml:"midi_program_name"`
	PluginName      string `yaml:"plugin_name"`
	MIDISaved       bool   `yaml:"midi_saved"`
}

// Program returns the stem's MIDI program number and whether one was recorded.
func (s Stem) Program() (int, bool) {
	if s.ProgramNum == nil {
		return 0, false
	}
	return *s.ProgramNum, true
}

// Metadata is the parsed metadata.yaml of a track.
type Metadata struct {
	UUID                string  `yaml:"UUID"`
	AudioDir            string  `yaml:"audio_dir"`
	MIDIDir             string  `yaml:"midi_dir"`
	LMDMIDIDir          string  `yaml:"lmd_midi_dir"`
	NormalizationFactor float64 `yaml:"normalization_factor"`
	OverallGain         float64 `yaml:"overall_gain"`
	TargetPeak          float64 `yaml:"target_peak"`
	// Stems keeps the order in which stems appear in the document.
	Stems []Stem `yaml:"-"`
}

type metadataDocument struct {
	Metadata `yaml:",inline"`
	Stems    yaml.Node `yaml:"stems"`
}

// LoadMetadata reads metadata.yaml from the track directory. A missing file
// yields an error matching ErrMetadataMissing.
func LoadMetadata(trackPath string) (*Metadata, error) {
	path := Track{Path: trackPath}.MetadataPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrMetadataMissing)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	meta, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}

// ParseMetadata decodes a metadata.yaml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var doc metadataDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	meta := doc.Metadata
	stems, err := decodeStems(&doc.Stems)
	if err != nil {
		return nil, err
	}
	meta.Stems = stems
	return &meta, nil
}

func decodeStems(node *yaml.Node) ([]Stem, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("parse metadata: stems must be a mapping (line %d)", node.Line)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("parse metadata: stems must be a mapping (line %d)", node.Line)
	}

	stems := make([]Stem, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		// Stems without an audio_rendered flag count as rendered.
		stem := Stem{AudioRendered: true}
		if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
			if err := value.Decode(&stem); err != nil {
				return nil, fmt.Errorf("parse metadata: stem %s: %w", key.Value, err)
			}
		}
		stem.ID = key.Value
		stems = append(stems, stem)
	}
	return stems, nil
}

// RenderedStems returns the stems whose audio was rendered, in document order.
func (m *Metadata) RenderedStems() []Stem {
	if m == nil {
		return nil
	}
	out := make([]Stem, 0, len(m.Stems))
	for _, stem := range m.Stems {
		if stem.AudioRendered {
			out = append(out, stem)
		}
	}
	return out
}

// Stem looks up a stem by identifier.
func (m *Metadata) Stem(id string) (Stem, bool) {
	if m == nil {
		return Stem{}, false
	}
	for _, stem := range m.Stems {
		if stem.ID == id {
			return stem, true
		}
	}
	return Stem{}, false
}
