package cmd

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/application/policy/cmd")
	logger = otelslog.NewLogger("emailverify/application/policy/cmd")
)

type BlacklistRepo interface {
	AddEntry(ctx context.Context, entry blacklist.Entry) error
	RemoveEntry(ctx context.Context, entry blacklist.Entry) error
}

type SettingsRepo interface {
	UpdateSettings(ctx context.Context, fn func(ctx context.Context, g *settings.Global) error) error
}

type AddBlacklistEntry struct {
	Entry string
}

type RemoveBlacklistEntry struct {
	Entry string
}

type SetCredential struct {
	CredentialID string
}

type ClearCredential struct{}

// Handler applies administrator policy changes. Each change takes effect on
// the next verification call; nothing already verified is touched.
type Handler struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	blacklist BlacklistRepo
	settings  SettingsRepo
}

type HandlerArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Blacklist BlacklistRepo
	Settings  SettingsRepo
}

func NewHandler(args HandlerArgs) *Handler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &Handler{
		tracer:    args.Tracer,
		logger:    args.Logger,
		blacklist: args.Blacklist,
		settings:  args.Settings,
	}
}

// AddBlacklistEntry is idempotent.
func (h *Handler) AddBlacklistEntry(ctx context.Context, c AddBlacklistEntry) error {
	const op = "cmd.Handler.AddBlacklistEntry"
	ctx, span := h.tracer.Start(ctx, "Handler.AddBlacklistEntry")
	defer span.End()

	entry, err := blacklist.NewEntry(c.Entry)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid blacklist entry")
		return errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.String("blacklist.entry", entry.String()))

	if err := h.blacklist.AddEntry(ctx, entry); err != nil {
		otelx.RecordSpanError(span, err, "failed to add blacklist entry")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "blacklist entry added", slog.String("entry", entry.String()))
	return nil
}

// RemoveBlacklistEntry succeeds when the entry was not listed.
func (h *Handler) RemoveBlacklistEntry(ctx context.Context, c RemoveBlacklistEntry) error {
	const op = "cmd.Handler.RemoveBlacklistEntry"
	ctx, span := h.tracer.Start(ctx, "Handler.RemoveBlacklistEntry")
	defer span.End()

	entry, err := blacklist.NewEntry(c.Entry)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid blacklist entry")
		return errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.String("blacklist.entry", entry.String()))

	if err := h.blacklist.RemoveEntry(ctx, entry); err != nil {
		otelx.RecordSpanError(span, err, "failed to remove blacklist entry")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "blacklist entry removed", slog.String("entry", entry.String()))
	return nil
}

func (h *Handler) SetCredential(ctx context.Context, c SetCredential) error {
	const op = "cmd.Handler.SetCredential"
	ctx, span := h.tracer.Start(ctx, "Handler.SetCredential")
	defer span.End()

	id, err := settings.NewCredentialID(c.CredentialID)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid credential id")
		return errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.String("credential.id", id.String()))

	err = h.settings.UpdateSettings(ctx, func(_ context.Context, g *settings.Global) error {
		g.SetCredential(id, time.Now().UTC())
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to set credential")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "verification credential set", slog.String("credential_id", id.String()))
	return nil
}

func (h *Handler) ClearCredential(ctx context.Context, _ ClearCredential) error {
	const op = "cmd.Handler.ClearCredential"
	ctx, span := h.tracer.Start(ctx, "Handler.ClearCredential")
	defer span.End()

	err := h.settings.UpdateSettings(ctx, func(_ context.Context, g *settings.Global) error {
		g.ClearCredential(time.Now().UTC())
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to clear credential")
		return errorx.Wrap(err, op)
	}

	h.logger.InfoContext(ctx, "verification credential cleared")
	return nil
}
