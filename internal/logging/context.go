package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the structured logging key for package/component names.
	FieldComponent = "component"
	// FieldRunID identifies one processing run.
	FieldRunID = "run_id"
	// FieldSession is the session directory being processed.
	FieldSession = "session"
	// FieldExercise is the exercise name parsed from a recording filename.
	FieldExercise = "exercise"
	// FieldChannel is the zero-based channel index.
	FieldChannel = "channel"
	// FieldFile is the recording file name.
	FieldFile  = "file"
	FieldError = "error"
)

type contextKey int

const (
	runIDKey contextKey = iota
	sessionKey
	exerciseKey
	channelKey
)

// WithRunID returns a context carrying the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithSession returns a context carrying the session directory.
func WithSession(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, sessionKey, dir)
}

// WithExercise returns a context carrying the exercise name.
func WithExercise(ctx context.Context, exercise string) context.Context {
	return context.WithValue(ctx, exerciseKey, exercise)
}

// WithChannel returns a context carrying the channel index.
func WithChannel(ctx context.Context, channel int) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// RunIDFromContext returns the run identifier attached to ctx, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if dir, ok := ctx.Value(sessionKey).(string); ok && dir != "" {
		fields = append(fields, slog.String(FieldSession, dir))
	}
	if exercise, ok := ctx.Value(exerciseKey).(string); ok && exercise != "" {
		fields = append(fields, slog.String(FieldExercise, exercise))
	}
	if channel, ok := ctx.Value(channelKey).(int); ok {
		fields = append(fields, slog.Int(FieldChannel, channel))
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
	return logger.With(Args(fields...)...)
}
