package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slakhprep/internal/config"
)

// LogFileName is the file appended to inside logging.dir.
const LogFileName = "slakhprep.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives every record; nil means stderr.
	Console io.Writer
	// File, when set, receives a copy of every record in append mode.
	File string
}

// Logger is a slog logger bound to the log file it appends to, if any.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Close closes the log file. It is safe to call on a logger without a file and
// more than once.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// New constructs a logger using the provided options.
func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	var out io.Writer = os.Stderr
	if opts.Console != nil {
		out = opts.Console
	}
	var file *os.File
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		file = f
		out = io.MultiWriter(out, f)
	}

	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(out, level)
	} else {
		handler = newConsoleHandler(out, level)
	}
	return &Logger{Logger: slog.New(handler), file: file}, nil
}

// NewFromConfig creates a logger from the logging section. Console output goes
// to stderr so generated files can be piped from stdout; when a log directory
// is configured, lines are also appended to slakhprep.log inside it.
func NewFromConfig(cfg *config.Config) (*Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Logging.Dir != "" {
		opts.File = filepath.Join(cfg.Logging.Dir, LogFileName)
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newJSONHandler emits one object per record with ts, level, msg keys. Source
// locations are attached at debug level only.
func newJSONHandler(w io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level.Level() <= slog.LevelDebug,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
