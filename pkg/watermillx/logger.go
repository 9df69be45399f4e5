package watermillx

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// OTelFilteredSlogLogger adapts watermill logging to slog. Records below
// minLevel, or ones the slog handler rejects, are dropped before the fields
// are converted.
type OTelFilteredSlogLogger struct {
	logger   *slog.Logger
	minLevel slog.Level
}

func NewOTelFilteredSlogLogger(logger *slog.Logger, minLevel slog.Level) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OTelFilteredSlogLogger{
		logger:   logger,
		minLevel: minLevel,
	}
}

func (l *OTelFilteredSlogLogger) enabled(level slog.Level) bool {
	return level >= l.minLevel && l.logger.Enabled(context.Background(), level)
}

func (l *OTelFilteredSlogLogger) log(level slog.Level, msg string, fields watermill.LogFields, extra ...slog.Attr) {
	if !l.enabled(level) {
		return
	}
	l.logger.LogAttrs(context.Background(), level, msg, fieldsToAttrs(fields, extra...)...)
}

func (l *OTelFilteredSlogLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log(slog.LevelError, msg, fields, slog.Any("error", err))
}

func (l *OTelFilteredSlogLogger) Info(msg string, fields watermill.LogFields) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *OTelFilteredSlogLogger) Debug(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug, msg, fields)
}

// Trace maps to one level below debug.
func (l *OTelFilteredSlogLogger) Trace(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug-4, msg, fields)
}

func (l *OTelFilteredSlogLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	attrs := fieldsToAttrs(fields)
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return &OTelFilteredSlogLogger{
		logger:   l.logger.With(args...),
		minLevel: l.minLevel,
	}
}

func fieldsToAttrs(fields watermill.LogFields, extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields)+len(extra))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return append(attrs, extra...)
}
