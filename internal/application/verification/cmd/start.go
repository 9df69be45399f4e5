package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/logging"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

var ErrBlocked = errorx.NewBlocked()

type Start struct {
	Identity verification.Identity
	Handle   string
	Email    string
}

func (c *Start) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Identity, validationx.IdentityRules...),
		validation.Field(&c.Email, validationx.EmailRules...),
		validation.Field(&c.Handle, validationx.HandleRules...),
	)
}

type StartHandler struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	repo      Repo
	blacklist BlacklistChecker
	notifier  Notifier
	codes     verification.CodeGenerator
	metrics   metrics.Recorder
}

type StartHandlerArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Repo      Repo
	Blacklist BlacklistChecker
	Notifier  Notifier
	Codes     verification.CodeGenerator
	Metrics   metrics.Recorder
}

func NewStartHandler(args StartHandlerArgs) *StartHandler {
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

	return &StartHandler{
		tracer:    args.Tracer,
		logger:    args.Logger,
		repo:      args.Repo,
		blacklist: args.Blacklist,
		notifier:  args.Notifier,
		codes:     args.Codes,
		metrics:   args.Metrics,
	}
}

// Handle issues a fresh code for cmd.Identity, replacing any record it had,
// and mails it to cmd.Email. A failed delivery leaves the pending record in
// place so the caller can resend.
func (h *StartHandler) Handle(ctx context.Context, cmd Start) error {
	ctx, span := h.tracer.Start(ctx, "StartHandler.Handle",
		trace.WithAttributes(
			attribute.String("identity", cmd.Identity.String()),
			attribute.String("email", logging.RedactEmail(cmd.Email)),
		))
	defer span.End()

	err := h.handle(ctx, span, cmd)
	h.metrics.RecordOutcome(metrics.OpStart, err)
	return err
}

func (h *StartHandler) handle(ctx context.Context, span trace.Span, cmd Start) error {
	const op = "cmd.StartHandler.Handle"

	if err := cmd.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid start command")
		return errorx.Wrap(err, op)
	}

	blocked, err := h.blacklist.IsBlocked(ctx, blacklist.Candidates(cmd.Identity.String(), cmd.Handle, cmd.Email)...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check blacklist")
		return errorx.Wrap(err, op)
	}
	if blocked {
		otelx.RecordSpanError(span, ErrBlocked, "identity is blacklisted")
		h.logger.InfoContext(ctx, "verification start refused", slog.String("identity", cmd.Identity.String()))
		return errorx.Wrap(ErrBlocked, op)
	}

	code, err := h.codes.Generate()
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to generate code")
		return errorx.Wrap(err, op)
	}

	rec, err := verification.NewPending(verification.StartArgs{
		Identity: cmd.Identity,
		Email:    cmd.Email,
		Handle:   cmd.Handle,
		Code:     code,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build pending record")
		return errorx.Wrap(err, op)
	}

	if err := h.repo.ReplaceVerification(ctx, rec); err != nil {
		otelx.RecordSpanError(span, err, "failed to store pending record")
		return errorx.Wrap(err, op)
	}
	span.AddEvent("pending record stored")

	if err := deliver(ctx, h.notifier, h.metrics, cmd.Email, code); err != nil {
		otelx.RecordSpanError(span, err, "failed to deliver code")
		return errorx.Wrap(err, op)
	}
	span.AddEvent("code delivered")

	return nil
}
