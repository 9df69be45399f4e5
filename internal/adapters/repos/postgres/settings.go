package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/postgres"
)

// SettingsRepo keeps global settings as rows of the settings key/value table.
// It never caches, so changes are visible to the next verification.
type SettingsRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewSettingsRepo creates a new instance of SettingsRepo.
//
//	WARNING; panics if pool is nil
func NewSettingsRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *SettingsRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &SettingsRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

const selectCredentialQuery = `SELECT value, updated_at FROM settings WHERE key = $1`

func (r *SettingsRepo) GetSettings(ctx context.Context) (*settings.Global, error) {
	ctx, span := r.tracer.Start(ctx, "SettingsRepo.GetSettings")
	defer span.End()

	g, err := loadSettings(r.pool.QueryRow(ctx, selectCredentialQuery+";", settings.KeyCredential))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get settings")
		return nil, storeErr(err)
	}
	return g, nil
}

// UpdateSettings locks the settings row, applies fn and stores the result.
// An empty credential deletes the row.
func (r *SettingsRepo) UpdateSettings(ctx context.Context, fn func(ctx context.Context, g *settings.Global) error) error {
	ctx, span := r.tracer.Start(ctx, "SettingsRepo.UpdateSettings")
	defer span.End()
	if fn == nil {
		return ErrNilFunc
	}

	upsert := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;
	`

	var fnerr error
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		g, err := loadSettings(tx.QueryRow(ctx, selectCredentialQuery+" FOR UPDATE;", settings.KeyCredential))
		if err != nil {
			return err
		}

		if fnerr = fn(ctx, g); fnerr != nil {
			return fnerr
		}

		if !g.HasCredential() {
			_, err = tx.Exec(ctx, `DELETE FROM settings WHERE key = $1;`, settings.KeyCredential)
			return err
		}
		_, err = tx.Exec(ctx, upsert, settings.KeyCredential, g.CredentialID().String(), g.UpdatedAt())
		return err
	})
	if fnerr != nil {
		return fnerr
	}
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update settings")
		return storeErr(err)
	}
	return nil
}

func loadSettings(row pgx.Row) (*settings.Global, error) {
	var (
		value     string
		updatedAt time.Time
	)
	err := row.Scan(&value, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings.New(), nil
	}
	if err != nil {
		return nil, err
	}

	return settings.Rehydrate(settings.RehydrateArgs{
		Credential: settings.CredentialID(value),
		UpdatedAt:  updatedAt,
	}), nil
}
