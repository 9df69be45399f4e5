package adminhttp

import (
	"log/slog"
	"net/http"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	policyapp "gitlab.com/ucmsv2/emailverify/internal/application/policy"
	policycmd "gitlab.com/ucmsv2/emailverify/internal/application/policy/cmd"
	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/query"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/httpx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/sanitizex"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

var (
	tracer = otel.Tracer("emailverify/internal/ports/http/admin")
	logger = otelslog.NewLogger("emailverify/internal/ports/http/admin")
)

type HTTP struct {
	tracer       trace.Tracer
	logger       *slog.Logger
	verification *verificationapp.App
	policy       *policyapp.App
	errhandler   *httpx.ErrorHandler
}

type Args struct {
	Tracer          trace.Tracer
	Logger          *slog.Logger
	VerificationApp *verificationapp.App
	PolicyApp       *policyapp.App
	Errhandler      *httpx.ErrorHandler
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
		tracer:       args.Tracer,
		logger:       args.Logger,
		verification: args.VerificationApp,
		policy:       args.PolicyApp,
		errhandler:   args.Errhandler,
	}
}

// Route mounts the administrator routes. The caller wraps r with
// authentication and the admin role check.
func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/admin", func(r chi.Router) {
		r.Route("/verifications", func(r chi.Router) {
			r.Get("/", h.ListVerifications)
			r.Post("/{identity}/force", h.ForceVerify)
			r.Delete("/{identity}", h.Revoke)
		})
		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", h.ListBlacklist)
			r.Put("/{entry}", h.AddBlacklistEntry)
			r.Delete("/{entry}", h.RemoveBlacklistEntry)
		})
		r.Route("/settings/credential", func(r chi.Router) {
			r.Get("/", h.GetCredential)
			r.Put("/", h.SetCredential)
			r.Delete("/", h.ClearCredential)
		})
	})
}

func (h *HTTP) ListVerifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListVerifications")
	defer span.End()

	state := sanitizex.CleanSingleLine(r.URL.Query().Get("state"))
	otelx.SetSpanAttrs(span, map[string]any{"verification.state": state})
	err := validation.Validate(state, validation.In(
		string(verification.StatePending), string(verification.StateVerified), "all",
	))
	if err != nil {
		h.errhandler.HandleError(w, r, span, validation.Errors{"state": err}, "invalid state filter")
		return
	}
	if state == "all" {
		state = ""
	}

	res, err := h.verification.Query.List.Handle(ctx, query.ListVerifications{State: verification.State(state)})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to list verifications")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"verifications": res.Verifications,
		"total":         res.Total,
	})
}

func (h *HTTP) ForceVerify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ForceVerify")
	defer span.End()

	identity, err := identityParam(r, span)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid identity")
		return
	}

	if err := h.verification.CMD.ForceVerify.Handle(ctx, cmd.ForceVerify{Identity: identity}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to force verify")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"verified": true})
}

func (h *HTTP) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RevokeVerification")
	defer span.End()

	identity, err := identityParam(r, span)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid identity")
		return
	}

	err = h.verification.CMD.Revoke.Handle(ctx, cmd.Revoke{
		Identity: identity,
		Reason:   verification.RevokeReasonAdmin,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to revoke verification")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListBlacklist")
	defer span.End()

	res, err := h.policy.Query.ListBlacklist(ctx)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to list blacklist")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"entries": res.Entries})
}

func (h *HTTP) AddBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddBlacklistEntry")
	defer span.End()

	entry, err := entryParam(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid blacklist entry")
		return
	}

	if err := h.policy.CMD.AddBlacklistEntry(ctx, policycmd.AddBlacklistEntry{Entry: entry}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to add blacklist entry")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) RemoveBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveBlacklistEntry")
	defer span.End()

	entry, err := entryParam(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid blacklist entry")
		return
	}

	if err := h.policy.CMD.RemoveBlacklistEntry(ctx, policycmd.RemoveBlacklistEntry{Entry: entry}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to remove blacklist entry")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) GetCredential(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCredential")
	defer span.End()

	res, err := h.policy.Query.GetCredential(ctx)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get credential")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"credential": res})
}

type SetCredentialRequest struct {
	CredentialID string `json:"credential_id"`
}

func (r *SetCredentialRequest) Sanitized() {
	r.CredentialID = sanitizex.CleanSingleLine(r.CredentialID)
}

func (r *SetCredentialRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{"credential.id": r.CredentialID})
}

func (r *SetCredentialRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CredentialID, validation.Required, validation.Length(1, 128)),
	)
}

func (h *HTTP) SetCredential(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetCredential")
	defer span.End()

	var req SetCredentialRequest
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

	if err := h.policy.CMD.SetCredential(ctx, policycmd.SetCredential{CredentialID: req.CredentialID}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to set credential")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) ClearCredential(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCredential")
	defer span.End()

	if err := h.policy.CMD.ClearCredential(ctx, policycmd.ClearCredential{}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to clear credential")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func identityParam(r *http.Request, span trace.Span) (verification.Identity, error) {
	identity := verification.Identity(sanitizex.CleanSingleLine(chi.URLParam(r, "identity")))
	otelx.SetSpanAttrs(span, map[string]any{"identity": identity.String()})
	if err := identity.Validate(); err != nil {
		return "", validation.Errors{"identity": err}
	}
	return identity, nil
}

func entryParam(r *http.Request) (string, error) {
	entry := sanitizex.CleanSingleLine(chi.URLParam(r, "entry"))
	if err := validation.Validate(entry, validationx.BlacklistEntryRules...); err != nil {
		return "", validation.Errors{"entry": err}
	}
	return entry, nil
}
