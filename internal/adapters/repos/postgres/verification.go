package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
	"gitlab.com/ucmsv2/emailverify/pkg/postgres"
	"gitlab.com/ucmsv2/emailverify/pkg/watermillx"
)

// VerificationRepo stores one row per identity. Every mutation runs in a
// transaction that also writes the record's events to the outbox.
type VerificationRepo struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

// NewVerificationRepo creates a new instance of VerificationRepo.
// It also sets default tracer and logger if they are nil.
//
//	WARNING; panics if pool is nil
func NewVerificationRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *VerificationRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &VerificationRepo{
		tracer:  t,
		logger:  l,
		pool:    pool,
		wlogger: watermillx.NewOTelFilteredSlogLogger(l, slog.LevelInfo),
	}
}

func (r *VerificationRepo) GetVerification(ctx context.Context, identity verification.Identity) (*verification.Record, error) {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.GetVerification")
	defer span.End()

	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE identity = $1;`

	dto, err := scanVerification(r.pool.QueryRow(ctx, query, identity.String()))
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get verification")
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.Wrap(verification.ErrNotFound, "postgres.VerificationRepo.GetVerification")
		}
		return nil, storeErr(err)
	}

	return VerificationToDomain(dto), nil
}

// ReplaceVerification writes rec over whatever row the identity had, verified
// rows included.
func (r *VerificationRepo) ReplaceVerification(ctx context.Context, rec *verification.Record) error {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.ReplaceVerification")
	defer span.End()

	query := `
		INSERT INTO verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity) DO UPDATE
		SET email = EXCLUDED.email, handle = EXCLUDED.handle, code = EXCLUDED.code,
		    state = EXCLUDED.state, issued_at = EXCLUDED.issued_at,
		    verified_at = EXCLUDED.verified_at, created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at;
	`

	dto := DomainToVerificationDTO(rec)
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		res, err := tx.Exec(ctx, query, dto.args()...)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to upsert verification")
			return err
		}
		if res.RowsAffected() == 0 {
			otelx.RecordSpanError(span, ErrNoRowsAffected, "no rows affected when upserting verification")
			return fmt.Errorf("failed to upsert verification: %w", ErrNoRowsAffected)
		}

		return r.publish(ctx, span, tx, rec)
	})
	if err != nil {
		return storeErr(err)
	}

	rec.MarkEventsAsCommitted()
	return nil
}

// UpdateVerification locks the identity's row, applies fn and writes the
// result back. An error from fn rolls everything back and is returned as is.
func (r *VerificationRepo) UpdateVerification(
	ctx context.Context,
	identity verification.Identity,
	fn func(ctx context.Context, rec *verification.Record) error,
) error {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.UpdateVerification")
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, ErrNilFunc, "update function cannot be nil")
		return ErrNilFunc
	}

	selectquery := `SELECT ` + verificationColumns + ` FROM verifications WHERE identity = $1 FOR UPDATE;`

	var fnerr error
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		dto, err := scanVerification(tx.QueryRow(ctx, selectquery, identity.String()))
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to get verification for update")
			if errors.Is(err, pgx.ErrNoRows) {
				fnerr = errorx.Wrap(verification.ErrNotFound, "postgres.VerificationRepo.UpdateVerification")
				return fnerr
			}
			return err
		}

		rec := VerificationToDomain(dto)
		if err := fn(ctx, rec); err != nil {
			otelx.RecordSpanError(span, err, "failed to apply update function")
			fnerr = err
			return err
		}

		if err := r.write(ctx, span, tx, rec); err != nil {
			return err
		}
		return r.publish(ctx, span, tx, rec)
	})
	if fnerr != nil {
		return fnerr
	}
	if err != nil {
		return storeErr(err)
	}

	return nil
}

// ForceVerification marks the identity verified. When no row exists rec is
// inserted as is; otherwise the stored row is upgraded in place. The stored
// record is returned.
func (r *VerificationRepo) ForceVerification(ctx context.Context, rec *verification.Record) (*verification.Record, error) {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.ForceVerification")
	defer span.End()

	selectquery := `SELECT ` + verificationColumns + ` FROM verifications WHERE identity = $1 FOR UPDATE;`
	insertquery := `
		INSERT INTO verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity) DO NOTHING;
	`

	var stored *verification.Record
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		res, err := tx.Exec(ctx, insertquery, DomainToVerificationDTO(rec).args()...)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to insert forced verification")
			return err
		}
		if res.RowsAffected() == 1 {
			stored = rec
			return r.publish(ctx, span, tx, rec)
		}

		dto, err := scanVerification(tx.QueryRow(ctx, selectquery, rec.Identity().String()))
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to get verification for force verify")
			return err
		}
		stored = VerificationToDomain(dto)
		stored.ForceVerify(rec.UpdatedAt())

		if err := r.write(ctx, span, tx, stored); err != nil {
			return err
		}
		return r.publish(ctx, span, tx, stored)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	stored.MarkEventsAsCommitted()
	rec.MarkEventsAsCommitted()
	return stored, nil
}

// DeleteVerification removes the identity's row and returns it, or nil when
// there was nothing to remove.
func (r *VerificationRepo) DeleteVerification(
	ctx context.Context,
	identity verification.Identity,
	reason verification.RevokeReason,
) (*verification.Record, error) {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.DeleteVerification")
	defer span.End()

	query := `DELETE FROM verifications WHERE identity = $1 RETURNING ` + verificationColumns + `;`

	var removed *verification.Record
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		dto, err := scanVerification(tx.QueryRow(ctx, query, identity.String()))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to delete verification")
			return err
		}

		removed = VerificationToDomain(dto)
		removed.Revoke(reason)
		return r.publish(ctx, span, tx, removed)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	if removed != nil {
		removed.MarkEventsAsCommitted()
	}
	return removed, nil
}

func (r *VerificationRepo) ListVerifications(ctx context.Context, filter verification.Filter) ([]*verification.Record, error) {
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.ListVerifications")
	defer span.End()

	query := `
		SELECT ` + verificationColumns + `
		FROM verifications
		WHERE ($1 = '' OR state = $1)
		ORDER BY identity;
	`

	rows, err := r.pool.Query(ctx, query, filter.State.String())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list verifications")
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*verification.Record
	for rows.Next() {
		dto, err := scanVerification(rows)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to scan verification")
			return nil, storeErr(err)
		}
		out = append(out, VerificationToDomain(dto))
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate verifications")
		return nil, storeErr(err)
	}

	return out, nil
}

func (r *VerificationRepo) write(ctx context.Context, span trace.Span, tx pgx.Tx, rec *verification.Record) error {
	query := `
		UPDATE verifications
		SET email = $2, handle = $3, code = $4, state = $5,
		    issued_at = $6, verified_at = $7, created_at = $8, updated_at = $9
		WHERE identity = $1;
	`

	res, err := tx.Exec(ctx, query, DomainToVerificationDTO(rec).args()...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update verification")
		return err
	}
	if res.RowsAffected() == 0 {
		otelx.RecordSpanError(span, ErrNoRowsAffected, "no rows affected when updating verification")
		return fmt.Errorf("failed to update verification: %w", ErrNoRowsAffected)
	}
	return nil
}

func (r *VerificationRepo) publish(ctx context.Context, span trace.Span, tx pgx.Tx, rec *verification.Record) error {
	events := rec.GetUncommittedEvents()
	if len(events) == 0 {
		return nil
	}
	if err := watermillx.Publish(ctx, tx, r.wlogger, events...); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish events")
		return err
	}
	return nil
}
