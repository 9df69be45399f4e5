package query

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/application/policy/query")
	logger = otelslog.NewLogger("emailverify/application/policy/query")
)

type BlacklistReader interface {
	ListEntries(ctx context.Context) ([]blacklist.Entry, error)
}

type SettingsReader interface {
	GetSettings(ctx context.Context) (*settings.Global, error)
}

type BlacklistResponse struct {
	Entries []string `json:"entries"`
}

type CredentialResponse struct {
	CredentialID string     `json:"credential_id"`
	Configured   bool       `json:"configured"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type Handler struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	blacklist BlacklistReader
	settings  SettingsReader
}

type HandlerArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Blacklist BlacklistReader
	Settings  SettingsReader
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

func (h *Handler) ListBlacklist(ctx context.Context) (*BlacklistResponse, error) {
	const op = "query.Handler.ListBlacklist"
	ctx, span := h.tracer.Start(ctx, "Handler.ListBlacklist")
	defer span.End()

	entries, err := h.blacklist.ListEntries(ctx)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list blacklist")
		return nil, errorx.Wrap(err, op)
	}

	return &BlacklistResponse{Entries: blacklist.Strings(entries)}, nil
}

func (h *Handler) GetCredential(ctx context.Context) (*CredentialResponse, error) {
	const op = "query.Handler.GetCredential"
	ctx, span := h.tracer.Start(ctx, "Handler.GetCredential")
	defer span.End()

	g, err := h.settings.GetSettings(ctx)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get settings")
		return nil, errorx.Wrap(err, op)
	}

	res := &CredentialResponse{
		CredentialID: g.CredentialID().String(),
		Configured:   g.HasCredential(),
	}
	if t := g.UpdatedAt(); !t.IsZero() {
		res.UpdatedAt = &t
	}
	return res, nil
}
