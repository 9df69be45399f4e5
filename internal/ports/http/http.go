package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	policyapp "gitlab.com/ucmsv2/emailverify/internal/application/policy"
	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	adminhttp "gitlab.com/ucmsv2/emailverify/internal/ports/http/admin"
	membershiphttp "gitlab.com/ucmsv2/emailverify/internal/ports/http/membership"
	"gitlab.com/ucmsv2/emailverify/internal/ports/http/middlewares"
	verificationhttp "gitlab.com/ucmsv2/emailverify/internal/ports/http/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
	"gitlab.com/ucmsv2/emailverify/pkg/httpx"
)

type Port struct {
	verification *verificationhttp.HTTP
	membership   *membershiphttp.HTTP
	admin        *adminhttp.HTTP
	mw           *middlewares.Middleware
	metrics      http.Handler
}

type Args struct {
	VerificationApp *verificationapp.App
	PolicyApp       *policyapp.App
	AuthSecret      []byte
	Limiter         verificationhttp.Limiter
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

func NewPort(args Args) *Port {
	errhandler := httpx.NewErrorHandler()

	return &Port{
		verification: verificationhttp.NewHTTP(verificationhttp.Args{
			App:        args.VerificationApp,
			Limiter:    args.Limiter,
			Errhandler: errhandler,
		}),
		membership: membershiphttp.NewHTTP(membershiphttp.Args{
			App:        args.VerificationApp,
			Errhandler: errhandler,
		}),
		admin: adminhttp.NewHTTP(adminhttp.Args{
			VerificationApp: args.VerificationApp,
			PolicyApp:       args.PolicyApp,
			Errhandler:      errhandler,
		}),
		mw: middlewares.NewMiddleware(middlewares.Args{
			Secret:     args.AuthSecret,
			Errhandler: errhandler,
		}),
		metrics: args.Metrics,
	}
}

func (p *Port) Route(r chi.Router) chi.Router {
	if r == nil {
		r = chi.NewRouter()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.OTel)
	r.Use(middlewares.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Success(w, r, http.StatusOK, httpx.Envelope{"status": "ok"})
	})
	if p.metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.metrics)
	}
	p.verification.RouteDev(r)

	r.Group(func(r chi.Router) {
		r.Use(p.mw.Auth)
		r.Use(p.mw.RequireRole(ctxs.RoleBridge))

		p.verification.Route(r)
		p.membership.Route(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(p.mw.Auth)
		r.Use(p.mw.RequireRole(ctxs.RoleAdmin))

		p.admin.Route(r)
	})

	return r
}
