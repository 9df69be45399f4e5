package cmd

import (
	"context"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

type Revoke struct {
	Identity verification.Identity
	Reason   verification.RevokeReason
}

func (c *Revoke) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Identity, validationx.IdentityRules...),
		validation.Field(&c.Reason),
	)
}

type RevokeHandler struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	repo       Repo
	credential CredentialPort
	metrics    metrics.Recorder
}

type RevokeHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Repo       Repo
	Credential CredentialPort
	Metrics    metrics.Recorder
}

func NewRevokeHandler(args RevokeHandlerArgs) *RevokeHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Metrics == nil {
		args.Metrics = metrics.Nop{}
	}

	return &RevokeHandler{
		tracer:     args.Tracer,
		logger:     args.Logger,
		repo:       args.Repo,
		credential: args.Credential,
		metrics:    args.Metrics,
	}
}

// Handle forgets the identity's verification and asks the platform to drop
// the credential. Revoking an unknown identity succeeds. The credential revoke
// is best effort, and so is the whole call for lifecycle reasons.
func (h *RevokeHandler) Handle(ctx context.Context, cmd Revoke) error {
	ctx, span := h.tracer.Start(ctx, "RevokeHandler.Handle",
		trace.WithAttributes(
			attribute.String("identity", cmd.Identity.String()),
			attribute.String("revoke.reason", string(cmd.Reason)),
		))
	defer span.End()

	err := h.handle(ctx, span, cmd)
	h.metrics.RecordOutcome(metrics.OpRevoke, err)
	return err
}

func (h *RevokeHandler) handle(ctx context.Context, span trace.Span, cmd Revoke) error {
	const op = "cmd.RevokeHandler.Handle"

	if err := cmd.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid revoke command")
		return errorx.Wrap(err, op)
	}

	removed, err := h.repo.DeleteVerification(ctx, cmd.Identity, cmd.Reason)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete verification")
		if cmd.Reason.IsLifecycle() {
			h.logger.ErrorContext(ctx, "failed to delete verification on lifecycle event",
				slog.String("identity", cmd.Identity.String()),
				slog.String("reason", string(cmd.Reason)),
				slog.Any("error", err),
			)
			return nil
		}
		if !errorx.IsTyped(err) {
			err = errorx.NewStoreUnavailable().WithCause(err)
		}
		return errorx.Wrap(err, op)
	}
	if removed == nil {
		span.AddEvent("no verification to delete")
	}

	if err := h.credential.Revoke(ctx, cmd.Identity); err != nil {
		otelx.RecordSpanError(span, err, "failed to revoke credential")
		h.logger.WarnContext(ctx, "failed to revoke credential",
			slog.String("identity", cmd.Identity.String()),
			slog.Any("error", err),
		)
	}

	h.logger.InfoContext(ctx, "verification revoked",
		slog.String("identity", cmd.Identity.String()),
		slog.String("reason", string(cmd.Reason)),
	)
	return nil
}
