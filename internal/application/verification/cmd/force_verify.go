package cmd

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

type ForceVerify struct {
	Identity verification.Identity
}

type ForceVerifyHandler struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	repo       Repo
	settings   SettingsGetter
	credential CredentialPort
	metrics    metrics.Recorder
}

type ForceVerifyHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Repo       Repo
	Settings   SettingsGetter
	Credential CredentialPort
	Metrics    metrics.Recorder
}

func NewForceVerifyHandler(args ForceVerifyHandlerArgs) *ForceVerifyHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Metrics == nil {
		args.Metrics = metrics.Nop{}
	}

	return &ForceVerifyHandler{
		tracer:     args.Tracer,
		logger:     args.Logger,
		repo:       args.Repo,
		settings:   args.Settings,
		credential: args.Credential,
		metrics:    args.Metrics,
	}
}

// Handle marks the identity verified without a code, creating a bare record
// when it never started verification, then grants the credential.
func (h *ForceVerifyHandler) Handle(ctx context.Context, cmd ForceVerify) error {
	ctx, span := h.tracer.Start(ctx, "ForceVerifyHandler.Handle",
		trace.WithAttributes(attribute.String("identity", cmd.Identity.String())))
	defer span.End()

	err := h.handle(ctx, span, cmd)
	h.metrics.RecordOutcome(metrics.OpForceVerify, err)
	return err
}

func (h *ForceVerifyHandler) handle(ctx context.Context, span trace.Span, cmd ForceVerify) error {
	const op = "cmd.ForceVerifyHandler.Handle"

	rec, err := verification.NewForced(cmd.Identity, time.Now().UTC())
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid force verify command")
		return errorx.Wrap(err, op)
	}

	stored, err := h.repo.ForceVerification(ctx, rec)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to force verification")
		return errorx.Wrap(err, op)
	}
	otelx.SetSpanAttrs(span, map[string]any{
		"verification.state": stored.State().String(),
	})

	h.logger.InfoContext(ctx, "identity force verified", slog.String("identity", cmd.Identity.String()))

	if err := grant(ctx, h.settings, h.credential, cmd.Identity); err != nil {
		otelx.RecordSpanError(span, err, "failed to grant credential")
		return errorx.Wrap(err, op)
	}

	return nil
}
