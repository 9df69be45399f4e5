package otelx

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TracePropagator is implemented by events that carry the producer's trace
// context through the outbox.
type TracePropagator interface {
	Propagate(ctx context.Context)
}

type TraceExtractor interface {
	Extract() context.Context
}

func ContextFromExtractor(extractor TraceExtractor) context.Context {
	if extractor == nil {
		return context.Background()
	}
	return extractor.Extract()
}

// ProducerLink links a consumer span to the span that published the event.
// Events without a carrier yield an empty, invalid link.
func ProducerLink(extractor TraceExtractor) trace.Link {
	return trace.LinkFromContext(ContextFromExtractor(extractor))
}
