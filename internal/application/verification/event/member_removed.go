package event

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/application/verification/event")
	logger = otelslog.NewLogger("emailverify/application/verification/event")
)

type Revoker interface {
	Handle(ctx context.Context, c cmd.Revoke) error
}

type MemberRemovedHandler struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	revoker Revoker
}

type MemberRemovedHandlerArgs struct {
	Tracer  trace.Tracer
	Logger  *slog.Logger
	Revoker Revoker
}

func NewMemberRemovedHandler(args MemberRemovedHandlerArgs) *MemberRemovedHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &MemberRemovedHandler{
		tracer:  args.Tracer,
		logger:  args.Logger,
		revoker: args.Revoker,
	}
}

// Handle revokes the identity's verification when it leaves or is banned.
// Failures are logged and acknowledged so the message is not redelivered
// forever.
func (h *MemberRemovedHandler) Handle(ctx context.Context, e *membership.MemberRemoved) error {
	if e == nil {
		return nil
	}

	l := h.logger.With(
		slog.String("event", "MemberRemoved"),
		slog.String("identity", e.Identity.String()),
		slog.String("reason", string(e.Reason)),
	)
	ctx, span := h.tracer.Start(
		ctx,
		"MemberRemovedHandler.Handle",
		trace.WithNewRoot(),
		trace.WithLinks(otelx.ProducerLink(e)),
		trace.WithAttributes(
			attribute.String("event.identity", e.Identity.String()),
			attribute.String("event.reason", string(e.Reason)),
		),
	)
	defer span.End()

	err := h.revoker.Handle(ctx, cmd.Revoke{
		Identity: e.Identity,
		Reason:   e.Reason.RevokeReason(),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to revoke on member removal")
		l.ErrorContext(ctx, "failed to revoke on member removal", slog.Any("error", err))
		return nil
	}

	l.InfoContext(ctx, "verification revoked on member removal")
	return nil
}
