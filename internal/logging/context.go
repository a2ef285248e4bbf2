package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for preprocessing run identifiers.
	FieldRunID = "run_id"
	// FieldSplit is the standardized structured logging key for dataset split names.
	FieldSplit = "split"
	// FieldTrack is the standardized structured logging key for track directory names.
	FieldTrack = "track"
	// FieldStem is the standardized structured logging key for stem identifiers.
	FieldStem = "stem"
)

type contextKey string

const (
	runIDKey contextKey = "run_id"
	splitKey contextKey = "split"
	trackKey contextKey = "track"
)

// WithRunID annotates context with the preprocessing run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// WithSplit annotates context with the dataset split being processed.
func WithSplit(ctx context.Context, split string) context.Context {
	if split == "" {
		return ctx
	}
	return context.WithValue(ctx, splitKey, split)
}

// WithTrack annotates context with the track being processed.
func WithTrack(ctx context.Context, track string) context.Context {
	if track == "" {
		return ctx
	}
	return context.WithValue(ctx, trackKey, track)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, runIDKey)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringFromContext(ctx, runIDKey); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if split, ok := stringFromContext(ctx, splitKey); ok {
		fields = append(fields, slog.String(FieldSplit, split))
	}
	if track, ok := stringFromContext(ctx, trackKey); ok {
		fields = append(fields, slog.String(FieldTrack, track))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
