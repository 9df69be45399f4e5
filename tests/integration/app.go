package integration

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	policyapp "gitlab.com/ucmsv2/emailverify/internal/application/policy"
	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	httpport "gitlab.com/ucmsv2/emailverify/internal/ports/http"
	"gitlab.com/ucmsv2/emailverify/internal/ports/http/middlewares"
	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
	"gitlab.com/ucmsv2/emailverify/pkg/env"
	"gitlab.com/ucmsv2/emailverify/tests/mocks"
)

const AuthSecret = "integration-test-secret-key"

// App is the service wired on the memory backends with delivery and
// credential grants captured by mocks.
type App struct {
	HTTPHandler      http.Handler
	Notifier         *mocks.Notifier
	Credential       *mocks.CredentialPort
	VerificationRepo *memory.VerificationRepo
	BlacklistRepo    *memory.BlacklistRepo
	SettingsRepo     *memory.SettingsRepo
	Limiter          *middlewares.RateLimiter
}

type AppArgs struct {
	// SubmitsPerMinute of zero disables throttling.
	SubmitsPerMinute float64
	Burst            int
}

func NewApp(args AppArgs) *App {
	bus := memory.NewEventBus()
	verificationRepo := memory.NewVerificationRepo(nil)
	blacklistRepo := memory.NewBlacklistRepo()
	settingsRepo := memory.NewSettingsRepo()
	notifier := mocks.NewNotifier()
	credential := mocks.NewCredentialPort()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	vapp := verificationapp.NewApp(verificationapp.Args{
		Mode:       env.Test,
		Repo:       verificationRepo,
		Blacklist:  blacklistRepo,
		Settings:   settingsRepo,
		Notifier:   notifier,
		Credential: credential,
		Events:     bus,
		Metrics:    collector,
	})
	papp := policyapp.NewApp(policyapp.Args{
		Blacklist: blacklistRepo,
		Settings:  settingsRepo,
	})

	bus.Subscribe(func(ctx context.Context, e event.Event) error {
		if removed, ok := e.(*membership.MemberRemoved); ok {
			return vapp.Event.MemberRemoved.Handle(ctx, removed)
		}
		return nil
	})

	limiter := middlewares.NewRateLimiter(middlewares.PerMinute(args.SubmitsPerMinute, args.Burst))

	port := httpport.NewPort(httpport.Args{
		VerificationApp: vapp,
		PolicyApp:       papp,
		AuthSecret:      []byte(AuthSecret),
		Limiter:         limiter,
		Metrics:         metrics.Handler(registry),
	})

	return &App{
		HTTPHandler:      port.Route(chi.NewRouter()),
		Notifier:         notifier,
		Credential:       credential,
		VerificationRepo: verificationRepo,
		BlacklistRepo:    blacklistRepo,
		SettingsRepo:     settingsRepo,
		Limiter:          limiter,
	}
}

func MustToken(subject string, role ctxs.Role) string {
	token, err := middlewares.NewToken([]byte(AuthSecret), subject, role, time.Hour)
	if err != nil {
		panic(err)
	}
	return token
}
