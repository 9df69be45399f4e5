package outbox

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/credential"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/internal/adapters/services/outbox")
	logger = otelslog.NewLogger("emailverify/internal/adapters/services/outbox")
)

type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// CredentialPort turns grant and revoke requests into credential events for
// the host platform bridge to apply.
type CredentialPort struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	publisher EventPublisher
}

type CredentialPortArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Publisher EventPublisher
}

func NewCredentialPort(args CredentialPortArgs) *CredentialPort {
	if args.Publisher == nil {
		panic("event publisher cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &CredentialPort{
		tracer:    args.Tracer,
		logger:    args.Logger,
		publisher: args.Publisher,
	}
}

func (p *CredentialPort) Grant(ctx context.Context, identity verification.Identity, id settings.CredentialID) error {
	const op = "outbox.CredentialPort.Grant"
	ctx, span := p.tracer.Start(ctx, "CredentialPort.Grant", trace.WithAttributes(
		attribute.String("identity", identity.String()),
		attribute.String("credential.id", id.String()),
	))
	defer span.End()

	if err := p.publisher.Publish(ctx, credential.NewGranted(identity, id)); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish credential grant")
		return errorx.Wrap(err, op)
	}

	p.logger.InfoContext(ctx, "credential grant published",
		slog.String("identity", identity.String()),
		slog.String("credential_id", id.String()),
	)
	return nil
}

func (p *CredentialPort) Revoke(ctx context.Context, identity verification.Identity) error {
	const op = "outbox.CredentialPort.Revoke"
	ctx, span := p.tracer.Start(ctx, "CredentialPort.Revoke", trace.WithAttributes(
		attribute.String("identity", identity.String()),
	))
	defer span.End()

	if err := p.publisher.Publish(ctx, credential.NewRevoked(identity)); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish credential revoke")
		return errorx.Wrap(err, op)
	}

	p.logger.InfoContext(ctx, "credential revoke published", slog.String("identity", identity.String()))
	return nil
}
