package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	emailverify "gitlab.com/ucmsv2/emailverify"
	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/postgres"
	redisrepo "gitlab.com/ucmsv2/emailverify/internal/adapters/repos/redis"
	"gitlab.com/ucmsv2/emailverify/internal/adapters/services/mailer"
	"gitlab.com/ucmsv2/emailverify/internal/adapters/services/outbox"
	policyapp "gitlab.com/ucmsv2/emailverify/internal/application/policy"
	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/config"
	"gitlab.com/ucmsv2/emailverify/internal/domain/credential"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	httpport "gitlab.com/ucmsv2/emailverify/internal/ports/http"
	"gitlab.com/ucmsv2/emailverify/internal/ports/http/middlewares"
	watermillport "gitlab.com/ucmsv2/emailverify/internal/ports/watermill"
	"gitlab.com/ucmsv2/emailverify/pkg/env"
	"gitlab.com/ucmsv2/emailverify/pkg/logging"
	pgpkg "gitlab.com/ucmsv2/emailverify/pkg/postgres"
	"gitlab.com/ucmsv2/emailverify/pkg/watermillx"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("emailverify stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	env.SetMode(cfg.Mode)
	slog.SetDefault(logging.Setup(cfg.Mode, nil))

	shutdownOTel, err := setupOTelSDK(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry SDK: %w", err)
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			slog.Error("failed to shutdown OpenTelemetry SDK", "error", err)
		}
	}()

	slog.InfoContext(ctx, "starting emailverify",
		"mode", cfg.Mode,
		"port", cfg.Server.Port,
		"store", cfg.Backends.Store,
		"blacklist", cfg.Backends.Blacklist,
		"mailer", cfg.Backends.Mailer,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	stores, err := setupStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	vapp := verificationapp.NewApp(verificationapp.Args{
		Mode:       cfg.Mode,
		Repo:       stores.Verification,
		Blacklist:  stores.Blacklist,
		Settings:   stores.Settings,
		Notifier:   setupNotifier(cfg),
		Credential: outbox.NewCredentialPort(outbox.CredentialPortArgs{Publisher: stores.Events}),
		Events:     stores.Events,
		Metrics:    collector,
	})
	papp := policyapp.NewApp(policyapp.Args{
		Blacklist: stores.Blacklist,
		Settings:  stores.Settings,
	})

	if stores.Pool != nil {
		router, err := setupEventProcessing(stores.Pool, vapp)
		if err != nil {
			return err
		}
		go func() {
			if err := router.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "event router stopped", "error", err)
				stop()
			}
		}()
		defer func() {
			if err := router.Close(); err != nil {
				slog.Error("failed to close event router", "error", err)
			}
		}()
	} else {
		stores.Bus.Subscribe(func(ctx context.Context, e event.Event) error {
			switch e := e.(type) {
			case *membership.MemberRemoved:
				return vapp.Event.MemberRemoved.Handle(ctx, e)
			case *credential.CredentialGranted:
				slog.InfoContext(ctx, "credential granted", "identity", e.Identity.String(), "credential_id", e.CredentialID.String())
			case *credential.CredentialRevoked:
				slog.InfoContext(ctx, "credential revoked", "identity", e.Identity.String())
			}
			return nil
		})
	}

	limiter := middlewares.NewRateLimiter(middlewares.PerMinute(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst))
	defer limiter.Stop()

	port := httpport.NewPort(httpport.Args{
		VerificationApp: vapp,
		PolicyApp:       papp,
		AuthSecret:      []byte(cfg.Auth.Secret),
		Limiter:         limiter,
		Metrics:         metrics.Handler(registry),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      port.Route(chi.NewRouter()),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// Stores groups the persistence backends chosen by configuration. Pool is
// nil in memory mode, Bus is nil otherwise.
type Stores struct {
	Pool         *pgxpool.Pool
	Bus          *memory.EventBus
	Verification verificationapp.Repo
	Blacklist    interface {
		policyapp.BlacklistRepo
		cmd.BlacklistChecker
	}
	Settings policyapp.SettingsRepo
	Events   cmd.EventPublisher
	redis    *goredis.Client
}

func (s *Stores) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func setupStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	switch cfg.Backends.Store {
	case config.BackendPostgres:
		pool, err := setupDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.Pool = pool
		s.Verification = postgres.NewVerificationRepo(pool, nil, nil)
		s.Settings = postgres.NewSettingsRepo(pool, nil, nil)
		s.Events = postgres.NewEventRepo(pool, nil, nil)
	default:
		s.Bus = memory.NewEventBus()
		s.Verification = memory.NewVerificationRepo(nil)
		s.Settings = memory.NewSettingsRepo()
		s.Events = s.Bus
	}

	switch cfg.Backends.Blacklist {
	case config.BackendPostgres:
		if s.Pool == nil {
			return nil, fmt.Errorf("postgres blacklist requires the postgres store")
		}
		s.Blacklist = postgres.NewBlacklistRepo(s.Pool, nil, nil)
	case config.BackendRedis:
		s.redis = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.Blacklist = redisrepo.NewBlacklistRepo(redisrepo.BlacklistRepoArgs{
			Client: s.redis,
			Key:    cfg.Redis.Key,
		})
	default:
		s.Blacklist = memory.NewBlacklistRepo()
	}

	return s, nil
}

func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgpkg.NewPgxPool(ctx, cfg.Postgres.DSN, cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	migrateDSN := strings.Replace(cfg.Postgres.DSN, "postgres://", "pgx5://", 1)
	if err := pgpkg.Migrate(migrateDSN, emailverify.Migrations, "migrations"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	wlogger := watermillx.NewOTelFilteredSlogLogger(slog.Default(), slog.LevelWarn)
	err = watermillx.InitializeEventSchema(ctx, pool, wlogger,
		verification.EventStreamName,
		membership.EventStreamName,
		credential.EventStreamName,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize event schema: %w", err)
	}

	return pool, nil
}

func setupEventProcessing(pool *pgxpool.Pool, vapp *verificationapp.App) (*message.Router, error) {
	wlogger := watermillx.NewOTelFilteredSlogLogger(slog.Default(), slog.LevelInfo)

	router, err := watermillport.NewRouter(wlogger)
	if err != nil {
		return nil, err
	}

	wmport, err := watermillport.NewPort(router, pool, wlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill port: %w", err)
	}
	if err := wmport.Register(watermillport.AppEventHandlers{Verification: vapp.Event}); err != nil {
		return nil, err
	}

	return router, nil
}

func setupNotifier(cfg *config.Config) *mailer.Notifier {
	var sender mailer.Sender
	switch cfg.Backends.Mailer {
	case config.MailerSMTP:
		sender = mailer.NewSMTP(mailer.SMTPArgs{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			From:               cfg.SMTP.From,
			SSL:                cfg.SMTP.SSL,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			Timeout:            cfg.SMTP.Timeout.Duration,
		})
	default:
		sender = mailer.NewLogSender(nil)
	}

	return mailer.NewNotifier(mailer.NotifierArgs{Sender: sender})
}
