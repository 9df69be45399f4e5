package verificationhttp

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
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/query"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/httpx"
	"gitlab.com/ucmsv2/emailverify/pkg/logging"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/sanitizex"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

var (
	tracer = otel.Tracer("emailverify/internal/ports/http/verification")
	logger = otelslog.NewLogger("emailverify/internal/ports/http/verification")
)

// Limiter throttles attempts per identity.
type Limiter interface {
	Check(key string) error
}

type nopLimiter struct{}

func (nopLimiter) Check(string) error { return nil }

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	cmd        *verificationapp.Command
	query      *verificationapp.Query
	limiter    Limiter
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	App        *verificationapp.App
	Limiter    Limiter
	Errhandler *httpx.ErrorHandler
}

func NewHTTP(args Args) *HTTP {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Limiter == nil {
		args.Limiter = nopLimiter{}
	}
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}

	return &HTTP{
		tracer:     args.Tracer,
		logger:     args.Logger,
		cmd:        &args.App.CMD,
		query:      &args.App.Query,
		limiter:    args.Limiter,
		errhandler: args.Errhandler,
	}
}

// Route mounts the bridge routes. The caller wraps r with authentication.
func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/verifications", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/submit", h.SubmitCode)
		r.Post("/resend", h.Resend)
		r.Get("/{identity}", h.GetVerification)
	})
}

// RouteDev mounts routes that expose codes. It is a no-op when the app was
// built outside a development mode.
func (h *HTTP) RouteDev(r chi.Router) {
	if h.query.GetCode == nil {
		return
	}
	r.Get("/dev/verifications/{identity}/code", h.GetCode)
}

type StartRequest struct {
	Identity string `json:"identity"`
	Handle   string `json:"handle"`
	Email    string `json:"email"`
}

func (r *StartRequest) Sanitized() {
	r.Identity = sanitizex.CleanSingleLine(r.Identity)
	r.Handle = sanitizex.CleanSingleLine(r.Handle)
	r.Email = sanitizex.CleanSingleLine(r.Email)
}

func (r *StartRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{
		"identity": r.Identity,
		"email":    logging.RedactEmail(r.Email),
	})
}

func (r *StartRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identity, validationx.IdentityRules...),
		validation.Field(&r.Handle, validationx.HandleRules...),
		validation.Field(&r.Email, validationx.EmailRules...),
	)
}

func (h *HTTP) Start(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "StartVerification")
	defer span.End()

	var req StartRequest
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

	err := h.cmd.Start.Handle(ctx, cmd.Start{
		Identity: verification.Identity(req.Identity),
		Handle:   req.Handle,
		Email:    req.Email,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to start verification")
		return
	}

	httpx.Success(w, r, http.StatusAccepted, nil)
}

type SubmitCodeRequest struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
}

func (r *SubmitCodeRequest) Sanitized() {
	r.Identity = sanitizex.CleanSingleLine(r.Identity)
	r.Code = sanitizex.CleanSingleLine(r.Code)
}

func (r *SubmitCodeRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{"identity": r.Identity})
}

// Validate only checks the shape of the code. A well-formed but wrong code
// is rejected by the command as INVALID_CODE.
func (r *SubmitCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identity, validationx.IdentityRules...),
		validation.Field(&r.Code, validation.Required, validation.Length(1, 64)),
	)
}

func (h *HTTP) SubmitCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitVerificationCode")
	defer span.End()

	var req SubmitCodeRequest
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
	if err := h.limiter.Check("submit:" + req.Identity); err != nil {
		h.errhandler.HandleError(w, r, span, err, "too many code submissions")
		return
	}

	err := h.cmd.SubmitCode.Handle(ctx, cmd.SubmitCode{
		Identity: verification.Identity(req.Identity),
		Code:     req.Code,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to submit verification code")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"verified": true})
}

type ResendRequest struct {
	Identity string `json:"identity"`
}

func (r *ResendRequest) Sanitized() {
	r.Identity = sanitizex.CleanSingleLine(r.Identity)
}

func (r *ResendRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{"identity": r.Identity})
}

func (r *ResendRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identity, validationx.IdentityRules...),
	)
}

func (h *HTTP) Resend(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ResendVerificationCode")
	defer span.End()

	var req ResendRequest
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
	if err := h.limiter.Check("resend:" + req.Identity); err != nil {
		h.errhandler.HandleError(w, r, span, err, "too many resend requests")
		return
	}

	if err := h.cmd.Resend.Handle(ctx, cmd.Resend{Identity: verification.Identity(req.Identity)}); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to resend verification code")
		return
	}

	httpx.Success(w, r, http.StatusAccepted, nil)
}

func (h *HTTP) GetVerification(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetVerification")
	defer span.End()

	identity, err := identityParam(r, span)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid identity")
		return
	}

	res, err := h.query.Get.Handle(ctx, query.GetVerification{Identity: identity})
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get verification")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"verification": res})
}

func (h *HTTP) GetCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetVerificationCode")
	defer span.End()

	identity, err := identityParam(r, span)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid identity")
		return
	}

	code, err := h.query.GetCode.Handle(ctx, identity)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get verification code")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"code": code})
}

func identityParam(r *http.Request, span trace.Span) (verification.Identity, error) {
	identity := verification.Identity(sanitizex.CleanSingleLine(chi.URLParam(r, "identity")))
	otelx.SetSpanAttrs(span, map[string]any{"identity": identity.String()})
	if err := identity.Validate(); err != nil {
		return "", validation.Errors{"identity": err}
	}
	return identity, nil
}
