package otelx

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type statusCoder interface {
	HTTPStatusCode() int
}

// RecordSpanError records err on span. Errors that map to a 4xx status are
// expected outcomes (wrong code, blocked, not found) and leave the span
// status unset; everything else marks the span as failed.
func RecordSpanError(span trace.Span, err error, desc string) {
	if span == nil || err == nil {
		return
	}
	if desc == "" {
		desc = err.Error()
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() < 500 {
		span.RecordError(err, trace.WithAttributes(
			attribute.Int("error.http_status", sc.HTTPStatusCode()),
			attribute.String("error.description", desc),
		))
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, desc)
}

// SetSpanAttrs sets attributes on span from a map. Values of unknown types
// are rendered with fmt.Stringer when available and %v otherwise.
func SetSpanAttrs(span trace.Span, attrs map[string]any) {
	if span == nil || len(attrs) == 0 {
		return
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		kvs = append(kvs, toAttribute(key, value))
	}
	span.SetAttributes(kvs...)
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case nil:
		return attribute.String(key, "<nil>")
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case time.Time:
		return attribute.String(key, v.Format(time.RFC3339Nano))
	case time.Duration:
		return attribute.String(key, v.String())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
