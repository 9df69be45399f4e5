package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

type BlacklistRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewBlacklistRepo creates a new instance of BlacklistRepo.
//
//	WARNING; panics if pool is nil
func NewBlacklistRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *BlacklistRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &BlacklistRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

// IsBlocked reports whether any of candidates is stored.
func (r *BlacklistRepo) IsBlocked(ctx context.Context, candidates ...blacklist.Entry) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.IsBlocked")
	defer span.End()

	if len(candidates) == 0 {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM blacklist WHERE entry = ANY($1));`

	var blocked bool
	if err := r.pool.QueryRow(ctx, query, blacklist.Strings(candidates)).Scan(&blocked); err != nil {
		otelx.RecordSpanError(span, err, "failed to check blacklist")
		return false, storeErr(err)
	}

	return blocked, nil
}

func (r *BlacklistRepo) AddEntry(ctx context.Context, entry blacklist.Entry) error {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.AddEntry")
	defer span.End()

	query := `INSERT INTO blacklist (entry) VALUES ($1) ON CONFLICT (entry) DO NOTHING;`

	if _, err := r.pool.Exec(ctx, query, entry.String()); err != nil {
		otelx.RecordSpanError(span, err, "failed to add blacklist entry")
		return storeErr(err)
	}
	return nil
}

func (r *BlacklistRepo) RemoveEntry(ctx context.Context, entry blacklist.Entry) error {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.RemoveEntry")
	defer span.End()

	query := `DELETE FROM blacklist WHERE entry = $1;`

	if _, err := r.pool.Exec(ctx, query, entry.String()); err != nil {
		otelx.RecordSpanError(span, err, "failed to remove blacklist entry")
		return storeErr(err)
	}
	return nil
}

func (r *BlacklistRepo) ListEntries(ctx context.Context) ([]blacklist.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.ListEntries")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT entry FROM blacklist ORDER BY entry;`)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list blacklist")
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []blacklist.Entry
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, blacklist.Entry(e))
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate blacklist")
		return nil, storeErr(err)
	}

	return out, nil
}
