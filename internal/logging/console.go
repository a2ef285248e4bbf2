package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders "<ts> LEVEL component: message key=value ...".
// Attributes bound through With are rendered once, when bound; a component
// attribute is hoisted in front of the message.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	component string
	prefix    string
	bound     []byte
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.bound = slices.Clip(h.bound)
	for _, attr := range attrs {
		if name, ok := h.componentOf(attr); ok {
			clone.component = name
			continue
		}
		clone.bound = appendAttr(clone.bound, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	component := h.component
	var tail []byte
	record.Attrs(func(attr slog.Attr) bool {
		if name, ok := h.componentOf(attr); ok && component == "" {
			component = name
			return true
		}
		tail = appendAttr(tail, h.prefix, attr)
		return true
	})

	buf := make([]byte, 0, 96+len(h.bound)+len(tail))
	buf = ts.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, record.Level.String()...)
	buf = append(buf, ' ')
	if component != "" {
		buf = append(buf, component...)
		buf = append(buf, ": "...)
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, "(no message)"...)
	}
	if record.Level <= slog.LevelDebug && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		buf = fmt.Appendf(buf, " [%s:%d]", filepath.Base(frame.File), frame.Line)
	}
	buf = append(buf, h.bound...)
	buf = append(buf, tail...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *consoleHandler) componentOf(attr slog.Attr) (string, bool) {
	if h.prefix != "" || attr.Key != FieldComponent {
		return "", false
	}
	return attr.Value.Resolve().String(), true
}

func appendAttr(buf []byte, prefix string, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			buf = appendAttr(buf, prefix, member)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	return appendValue(buf, attr.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendText(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return appendText(buf, err.Error())
		}
		return appendText(buf, fmt.Sprint(v.Any()))
	}
}

// appendText quotes values that are empty or would break key=value parsing.
func appendText(buf []byte, s string) []byte {
	needsQuote := strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0
	if s == "" || needsQuote {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}
