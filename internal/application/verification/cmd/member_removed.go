package cmd

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

// RecordMemberRemoved accepts a leave or ban notice from the platform bridge.
// The revocation itself runs asynchronously off the membership stream.
type RecordMemberRemoved struct {
	Identity verification.Identity
	Reason   membership.Reason
}

type RecordMemberRemovedHandler struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	publisher EventPublisher
}

type RecordMemberRemovedHandlerArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Publisher EventPublisher
}

func NewRecordMemberRemovedHandler(args RecordMemberRemovedHandlerArgs) *RecordMemberRemovedHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &RecordMemberRemovedHandler{
		tracer:    args.Tracer,
		logger:    args.Logger,
		publisher: args.Publisher,
	}
}

func (h *RecordMemberRemovedHandler) Handle(ctx context.Context, cmd RecordMemberRemoved) error {
	const op = "cmd.RecordMemberRemovedHandler.Handle"
	ctx, span := h.tracer.Start(ctx, "RecordMemberRemovedHandler.Handle",
		trace.WithAttributes(
			attribute.String("identity", cmd.Identity.String()),
			attribute.String("membership.reason", string(cmd.Reason)),
		))
	defer span.End()

	e, err := membership.NewMemberRemoved(cmd.Identity, cmd.Reason)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid member removed command")
		return errorx.Wrap(err, op)
	}

	if err := h.publisher.Publish(ctx, e); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish member removed")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "member removal recorded",
		slog.String("identity", cmd.Identity.String()),
		slog.String("reason", string(cmd.Reason)),
	)
	return nil
}
