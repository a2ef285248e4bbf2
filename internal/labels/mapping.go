package labels

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"slakhprep/internal/dataset"
)

//go:embed default_groups.txt
var defaultGroups string

// DefaultMappingName identifies the embedded mapping in logs and errors.
const DefaultMappingName = "<built-in>"

type programRange struct {
	low, high int
	group     string
}

// Mapping resolves stems to coarse instrument groups.
type Mapping struct {
	source    string
	classes   map[string]string
	programs  []programRange
	drumGroup string
	unknown   string
}

// LoadMapping reads a group mapping file. An empty path loads the built-in
// mapping.
func LoadMapping(path string) (*Mapping, error) {
	if strings.TrimSpace(path) == "" {
		return ParseMapping(DefaultMappingName, strings.NewReader(defaultGroups))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open group mapping: %w", err)
	}
	defer file.Close()
	return ParseMapping(path, file)
}

// ParseMapping parses "key: Group" lines. Keys are program numbers, inclusive
// program ranges ("24-31"), or instrument class names. Group names are
// title-cased. Lines without a colon use the "<group> <inst_class>" form of
// the dataset's instrument_groups.txt, where the first token is emitted as is.
// Blank lines and lines starting with '#' are ignored.
func ParseMapping(source string, r io.Reader) (*Mapping, error) {
	m := &Mapping{source: source, classes: make(map[string]string)}
	caser := cases.Title(language.English)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			group, class, found := strings.Cut(line, " ")
			class = strings.TrimSpace(class)
			if !found || class == "" {
				return nil, fmt.Errorf("%s:%d: expected \"key: group\" or \"group class\"", source, lineNo)
			}
			m.classes[normalizeClass(class)] = group
			continue
		}
		key = strings.TrimSpace(key)
		group := caser.String(strings.Join(strings.Fields(value), " "))
		if key == "" || group == "" {
			return nil, fmt.Errorf("%s:%d: key and group must be non-empty", source, lineNo)
		}

		if low, high, isRange, err := parseProgramKey(key); isRange {
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
			}
			m.programs = append(m.programs, programRange{low: low, high: high, group: group})
			continue
		}
		m.classes[normalizeClass(key)] = group
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read group mapping: %w", err)
	}
	return m, nil
}

// parseProgramKey reports isRange=true whenever key looks numeric, so a
// malformed range surfaces as an error instead of a class name.
func parseProgramKey(key string) (low, high int, isRange bool, err error) {
	if key[0] < '0' || key[0] > '9' {
		return 0, 0, false, nil
	}
	lowText, highText, hasDash := strings.Cut(key, "-")
	low, err = strconv.Atoi(strings.TrimSpace(lowText))
	if err != nil {
		return 0, 0, true, fmt.Errorf("invalid program key %q", key)
	}
	high = low
	if hasDash {
		high, err = strconv.Atoi(strings.TrimSpace(highText))
		if err != nil {
			return 0, 0, true, fmt.Errorf("invalid program range %q", key)
		}
	}
	if high < low {
		return 0, 0, true, fmt.Errorf("program range %q is reversed", key)
	}
	return low, high, true, nil
}

func normalizeClass(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// WithFallbacks returns a copy of m using drumGroup for drum stems and unknown
// when nothing matches. An empty drumGroup leaves drum stems to the regular
// lookup.
func (m *Mapping) WithFallbacks(drumGroup, unknown string) *Mapping {
	clone := *m
	clone.drumGroup = drumGroup
	clone.unknown = unknown
	return &clone
}

// Source returns the file the mapping was read from.
func (m *Mapping) Source() string {
	return m.source
}

// Group resolves the coarse group of a stem: drum stems first, then the
// instrument class, then the program number. The first matching program range
// in file order wins.
func (m *Mapping) Group(stem dataset.Stem) string {
	if stem.IsDrum && m.drumGroup != "" {
		return m.drumGroup
	}
	if group, ok := m.classes[normalizeClass(stem.InstClass)]; ok && stem.InstClass != "" {
		return group
	}
	if program, ok := stem.Program(); ok {
		for _, r := range m.programs {
			if program >= r.low && program <= r.high {
				return r.group
			}
		}
	}
	return m.unknown
}

// Groups lists the distinct group names in the mapping, in first-seen order.
func (m *Mapping) Groups() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(group string) {
		if group == "" {
			return
		}
		if _, ok := seen[group]; ok {
			return
		}
		seen[group] = struct{}{}
		out = append(out, group)
	}
	for _, r := range m.programs {
		add(r.group)
	}
	classes := make([]string, 0, len(m.classes))
	for class := range m.classes {
		classes = append(classes, class)
	}
	slices.Sort(classes)
	for _, class := range classes {
		add(m.classes[class])
	}
	add(m.drumGroup)
	return out
}
