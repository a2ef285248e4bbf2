package activity

import (
	"strconv"
	"strings"
)

// FormatSegments renders segments as a bracketed list of pairs, e.g.
// "[(0.0, 1.23), (4.5, 6.0)]". An empty list renders as "[]".
func FormatSegments(segments []Segment) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		b.WriteString(formatSeconds(seg.Start))
		b.WriteString(", ")
		b.WriteString(formatSeconds(seg.End))
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

// formatSeconds prints the shortest representation with at least one decimal.
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// ParseSegments reverses FormatSegments.
func ParseSegments(value string) ([]Segment, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, &ParseError{Value: value, Reason: "missing brackets"}
	}
	body := strings.TrimSpace(value[1 : len(value)-1])
	segments := []Segment{}
	for body != "" {
		if body[0] != '(' {
			return nil, &ParseError{Value: value, Reason: "expected '('"}
		}
		end := strings.IndexByte(body, ')')
		if end < 0 {
			return nil, &ParseError{Value: value, Reason: "unterminated pair"}
		}
		startText, endText, ok := strings.Cut(body[1:end], ",")
		if !ok {
			return nil, &ParseError{Value: value, Reason: "pair needs two values"}
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(startText), 64)
		if err != nil {
			return nil, &ParseError{Value: value, Reason: err.Error()}
		}
		stop, err := strconv.ParseFloat(strings.TrimSpace(endText), 64)
		if err != nil {
			return nil, &ParseError{Value: value, Reason: err.Error()}
		}
		segments = append(segments, Segment{Start: start, End: stop})
		body = strings.TrimSpace(body[end+1:])
		body = strings.TrimSpace(strings.TrimPrefix(body, ","))
	}
	return segments, nil
}

// ParseError reports a malformed segment list.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return "parse segments " + strconv.Quote(e.Value) + ": " + e.Reason
}
