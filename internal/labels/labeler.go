package labels

import (
	"fmt"
	"strconv"
	"strings"

	"slakhprep/internal/dataset"
)

// Mode selects which label is emitted for a stem.
type Mode string

const (
	// ModeProgram emits the MIDI program number.
	ModeProgram Mode = "program"
	// ModeGroup emits the coarse instrument group from the mapping.
	ModeGroup Mode = "group"
	// ModeClass emits the instrument class recorded in the metadata.
	ModeClass Mode = "class"
)

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(value))); mode {
	case ModeProgram, ModeGroup, ModeClass:
		return mode, nil
	case "":
		return ModeProgram, nil
	default:
		return "", fmt.Errorf("unknown label mode %q (use program, group, or class)", value)
	}
}

// OutputName returns the per-split file name used for the mode.
func (m Mode) OutputName(split string) string {
	switch m {
	case ModeGroup:
		return "groups_" + split + ".txt"
	case ModeClass:
		return "classes_" + split + ".txt"
	default:
		return "categories_" + split + ".txt"
	}
}

// Labeler turns stems into label strings.
type Labeler struct {
	Mode    Mode
	Mapping *Mapping
	// Unknown is emitted when a stem lacks the requested field.
	Unknown string
	// Extension is appended to stem identifiers in listings, without the dot.
	Extension string
	// IncludeUnrendered keeps stems whose audio was never rendered.
	IncludeUnrendered bool
}

// Label returns the label for a stem.
func (l Labeler) Label(stem dataset.Stem) string {
	switch l.Mode {
	case ModeGroup:
		if l.Mapping == nil {
			return l.Unknown
		}
		return l.Mapping.Group(stem)
	case ModeClass:
		if class := strings.TrimSpace(stem.InstClass); class != "" {
			return class
		}
		return l.Unknown
	default:
		if program, ok := stem.Program(); ok {
			return strconv.Itoa(program)
		}
		return l.Unknown
	}
}

// Entries labels the stems of a track, skipping unrendered stems unless
// configured otherwise.
func (l Labeler) Entries(meta *dataset.Metadata) []Entry {
	if meta == nil {
		return nil
	}
	entries := make([]Entry, 0, len(meta.Stems))
	for _, stem := range meta.Stems {
		if !stem.AudioRendered && !l.IncludeUnrendered {
			continue
		}
		entries = append(entries, Entry{
			Name:  l.fileName(stem.ID),
			Value: l.Label(stem),
		})
	}
	return entries
}

func (l Labeler) fileName(id string) string {
	ext := strings.TrimPrefix(l.Extension, ".")
	if ext == "" {
		return id
	}
	return id + "." + ext
}
