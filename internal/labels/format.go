package labels

import "strings"

// Entry is one "<name>: <value>" line of a track block.
type Entry struct {
	Name  string
	Value string
}

// FormatTrack renders a track block: a "Track: <path>" header followed by one
// line per entry. Every line ends with a newline.
func FormatTrack(trackPath string, entries []Entry) string {
	var b strings.Builder
	b.Grow(len(trackPath) + 8 + len(entries)*16)
	b.WriteString("Track: ")
	b.WriteString(trackPath)
	b.WriteByte('\n')
	for _, entry := range entries {
		b.WriteString(entry.Name)
		b.WriteString(": ")
		b.WriteString(entry.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
