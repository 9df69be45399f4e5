package postgres

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/postgres"
	"gitlab.com/ucmsv2/emailverify/pkg/watermillx"
)

// EventRepo appends standalone events to the outbox, each batch in its own
// transaction.
type EventRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewEventRepo creates a new instance of EventRepo.
//
//	WARNING; panics if pool is nil
func NewEventRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *EventRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &EventRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewOTelFilteredSlogLogger(l, slog.LevelInfo),
	}
}

func (r *EventRepo) Publish(ctx context.Context, events ...event.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepo.Publish")
	defer span.End()

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return watermillx.Publish(ctx, tx, r.wlogger, events...)
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to publish events")
		return storeErr(err)
	}
	return nil
}
