package mocks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

// VerificationRepo is the in-memory store with its events captured and an
// optional injected failure.
type VerificationRepo struct {
	*EventRepo
	store *memory.VerificationRepo
	mu    sync.Mutex
	err   error
}

func NewVerificationRepo() *VerificationRepo {
	events := NewEventRepo()
	return &VerificationRepo{
		EventRepo: events,
		store:     memory.NewVerificationRepo(events),
	}
}

// FailWith makes every following store call return err. Pass nil to recover.
func (r *VerificationRepo) FailWith(err error) *VerificationRepo {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return r
}

func (r *VerificationRepo) failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *VerificationRepo) GetVerification(ctx context.Context, identity verification.Identity) (*verification.Record, error) {
	if err := r.failure(); err != nil {
		return nil, err
	}
	return r.store.GetVerification(ctx, identity)
}

func (r *VerificationRepo) ReplaceVerification(ctx context.Context, rec *verification.Record) error {
	if err := r.failure(); err != nil {
		return err
	}
	return r.store.ReplaceVerification(ctx, rec)
}

func (r *VerificationRepo) UpdateVerification(
	ctx context.Context,
	identity verification.Identity,
	fn func(context.Context, *verification.Record) error,
) error {
	if err := r.failure(); err != nil {
		return err
	}
	return r.store.UpdateVerification(ctx, identity, fn)
}

func (r *VerificationRepo) ForceVerification(ctx context.Context, rec *verification.Record) (*verification.Record, error) {
	if err := r.failure(); err != nil {
		return nil, err
	}
	return r.store.ForceVerification(ctx, rec)
}

func (r *VerificationRepo) DeleteVerification(
	ctx context.Context,
	identity verification.Identity,
	reason verification.RevokeReason,
) (*verification.Record, error) {
	if err := r.failure(); err != nil {
		return nil, err
	}
	return r.store.DeleteVerification(ctx, identity, reason)
}

func (r *VerificationRepo) ListVerifications(ctx context.Context, filter verification.Filter) ([]*verification.Record, error) {
	if err := r.failure(); err != nil {
		return nil, err
	}
	return r.store.ListVerifications(ctx, filter)
}

// SeedVerification stores rec without recording its events.
func (r *VerificationRepo) SeedVerification(t *testing.T, rec *verification.Record) {
	t.Helper()

	rec.MarkEventsAsCommitted()
	require.NoError(t, r.store.ReplaceVerification(t.Context(), rec))
}

func (r *VerificationRepo) AssertVerificationExists(t *testing.T, identity verification.Identity) *verification.RecordAssertion {
	t.Helper()

	rec, err := r.store.GetVerification(t.Context(), identity)
	require.NoError(t, err, "expected verification for %q to exist", identity)
	return verification.NewRecordAssertion(rec)
}

func (r *VerificationRepo) AssertVerificationNotExists(t *testing.T, identity verification.Identity) *VerificationRepo {
	t.Helper()

	rec, err := r.store.GetVerification(t.Context(), identity)
	assert.Error(t, err)
	assert.Nil(t, rec, "expected no verification for %q", identity)
	return r
}

func (r *VerificationRepo) CurrentCode(t *testing.T, identity verification.Identity) string {
	t.Helper()

	rec, err := r.store.GetVerification(t.Context(), identity)
	require.NoError(t, err)
	return rec.Code()
}
