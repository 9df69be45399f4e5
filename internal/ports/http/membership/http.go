package membershiphttp

import (
	"log/slog"
	"net/http"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/httpx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/sanitizex"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

var (
	tracer = otel.Tracer("emailverify/internal/ports/http/membership")
	logger = otelslog.NewLogger("emailverify/internal/ports/http/membership")
)

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	cmd        *verificationapp.Command
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	App        *verificationapp.App
	Errhandler *httpx.ErrorHandler
}

func NewHTTP(args Args) *HTTP {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}

	return &HTTP{
		tracer:     args.Tracer,
		logger:     args.Logger,
		cmd:        &args.App.CMD,
		errhandler: args.Errhandler,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Post("/v1/membership/events", h.RecordEvent)
}

type EventRequest struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

func (r *EventRequest) Sanitized() {
	r.Identity = sanitizex.CleanSingleLine(r.Identity)
	r.Reason = sanitizex.CleanSingleLine(r.Reason)
}

func (r *EventRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{
		"identity":          r.Identity,
		"membership.reason": r.Reason,
	})
}

func (r *EventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identity, validationx.IdentityRules...),
		validation.Field(&r.Reason, validation.Required,
			validation.In(string(membership.ReasonLeft), string(membership.ReasonBanned))),
	)
}

// RecordEvent accepts a leave or ban notice from the bridge. The revocation
// itself happens asynchronously once the event is consumed.
func (h *HTTP) RecordEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RecordMembershipEvent")
	defer span.End()

	var req EventRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	req.Sanitized()
	req.SetSpanAttrs(span)
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	err := h.cmd.RecordMemberRemoved.Handle(ctx, cmd.RecordMemberRemoved{
		Identity: verification.Identity(req.Identity),
		Reason:   membership.Reason(req.Reason),
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to record membership event")
		return
	}

	httpx.Success(w, r, http.StatusAccepted, nil)
}
