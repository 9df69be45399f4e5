package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

type SubmitCode struct {
	Identity verification.Identity
	Code     string
}

// Validate checks the identity only. Any code, empty included, is compared
// against the record so that a wrong one reports InvalidCode.
func (c *SubmitCode) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Identity, validationx.IdentityRules...),
	)
}

type SubmitCodeHandler struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	repo       Repo
	settings   SettingsGetter
	credential CredentialPort
	metrics    metrics.Recorder
}

type SubmitCodeHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Repo       Repo
	Settings   SettingsGetter
	Credential CredentialPort
	Metrics    metrics.Recorder
}

func NewSubmitCodeHandler(args SubmitCodeHandlerArgs) *SubmitCodeHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Metrics == nil {
		args.Metrics = metrics.Nop{}
	}

	return &SubmitCodeHandler{
		tracer:     args.Tracer,
		logger:     args.Logger,
		repo:       args.Repo,
		settings:   args.Settings,
		credential: args.Credential,
		metrics:    args.Metrics,
	}
}

// Handle checks cmd.Code against the identity's pending code. On a match the
// verified state is committed first and the credential granted afterwards;
// grant problems are reported but the identity stays verified.
func (h *SubmitCodeHandler) Handle(ctx context.Context, cmd SubmitCode) error {
	ctx, span := h.tracer.Start(ctx, "SubmitCodeHandler.Handle",
		trace.WithAttributes(attribute.String("identity", cmd.Identity.String())))
	defer span.End()

	err := h.handle(ctx, span, cmd)
	h.metrics.RecordOutcome(metrics.OpSubmit, err)
	return err
}

func (h *SubmitCodeHandler) handle(ctx context.Context, span trace.Span, cmd SubmitCode) error {
	const op = "cmd.SubmitCodeHandler.Handle"

	if err := cmd.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid submit command")
		return errorx.Wrap(err, op)
	}

	err := h.repo.UpdateVerification(ctx, cmd.Identity, func(ctx context.Context, rec *verification.Record) error {
		span := trace.SpanFromContext(ctx)
		otelx.SetSpanAttrs(span, map[string]any{
			"verification.state": rec.State().String(),
		})
		if err := rec.VerifyCode(cmd.Code, time.Now().UTC()); err != nil {
			span.AddEvent("code rejected")
			return err
		}
		span.AddEvent("code accepted")
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to verify code")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "identity verified", slog.String("identity", cmd.Identity.String()))

	if err := grant(ctx, h.settings, h.credential, cmd.Identity); err != nil {
		otelx.RecordSpanError(span, err, "failed to grant credential")
		h.logger.WarnContext(ctx, "identity verified without credential",
			slog.String("identity", cmd.Identity.String()),
			slog.Any("error", err),
		)
		return errorx.Wrap(err, op)
	}

	return nil
}
