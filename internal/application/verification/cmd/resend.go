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

type Resend struct {
	Identity verification.Identity
}

func (c *Resend) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Identity, validationx.IdentityRules...),
	)
}

type ResendHandler struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	repo     Repo
	notifier Notifier
	codes    verification.CodeGenerator
	metrics  metrics.Recorder
}

type ResendHandlerArgs struct {
	Tracer   trace.Tracer
	Logger   *slog.Logger
	Repo     Repo
	Notifier Notifier
	Codes    verification.CodeGenerator
	Metrics  metrics.Recorder
}

func NewResendHandler(args ResendHandlerArgs) *ResendHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Codes == nil {
		args.Codes = verification.RandomCode
	}
	if args.Metrics == nil {
		args.Metrics = metrics.Nop{}
	}

	return &ResendHandler{
		tracer:   args.Tracer,
		logger:   args.Logger,
		repo:     args.Repo,
		notifier: args.Notifier,
		codes:    args.Codes,
		metrics:  args.Metrics,
	}
}

func (h *ResendHandler) Handle(ctx context.Context, cmd Resend) error {
	ctx, span := h.tracer.Start(ctx, "ResendHandler.Handle",
		trace.WithAttributes(attribute.String("identity", cmd.Identity.String())))
	defer span.End()

	err := h.handle(ctx, span, cmd)
	h.metrics.RecordOutcome(metrics.OpResend, err)
	return err
}

func (h *ResendHandler) handle(ctx context.Context, span trace.Span, cmd Resend) error {
	const op = "cmd.ResendHandler.Handle"

	if err := cmd.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid resend command")
		return errorx.Wrap(err, op)
	}

	code, err := h.codes.Generate()
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to generate code")
		return errorx.Wrap(err, op)
	}

	var address string
	err = h.repo.UpdateVerification(ctx, cmd.Identity, func(ctx context.Context, rec *verification.Record) error {
		span := trace.SpanFromContext(ctx)
		if err := rec.Reissue(code, time.Now().UTC()); err != nil {
			span.AddEvent("no pending verification to reissue")
			return err
		}
		address = rec.Email()
		span.AddEvent("code reissued")
		return nil
	})
	if errorx.IsNotFound(err) {
		err = verification.ErrNoPendingRecord
	}
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to reissue code")
		return errorx.Wrap(err, op)
	}

	if err := deliver(ctx, h.notifier, h.metrics, address, code); err != nil {
		otelx.RecordSpanError(span, err, "failed to deliver code")
		return errorx.Wrap(err, op)
	}
	span.AddEvent("code delivered")

	return nil
}
