package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

func pending(t *testing.T, identity verification.Identity, code string) *verification.Record {
	t.Helper()
	rec, err := verification.NewPending(verification.StartArgs{
		Identity: identity,
		Email:    "user@example.com",
		Code:     code,
		Now:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return rec
}

func TestVerificationRepo_ReplaceKeepsOneRecord(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	bus := NewEventBus()
	var published []event.Event
	bus.Subscribe(func(_ context.Context, e event.Event) error {
		published = append(published, e)
		return nil
	})
	repo := NewVerificationRepo(bus)

	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u1", "111111")))
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u1", "222222")))

	all, err := repo.ListVerifications(ctx, verification.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "222222", all[0].Code())
	assert.Len(t, published, 2)
}

func TestVerificationRepo_UpdateRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u1", "111111")))

	err := repo.UpdateVerification(ctx, "u1", func(_ context.Context, rec *verification.Record) error {
		require.NoError(t, rec.Reissue("999999", time.Now()))
		return errorx.NewInternalError()
	})
	require.Error(t, err)

	got, err := repo.GetVerification(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "111111", got.Code())

	err = repo.UpdateVerification(ctx, "u1", func(_ context.Context, rec *verification.Record) error {
		return rec.VerifyCode("000000", time.Now())
	})
	assert.ErrorIs(t, err, verification.ErrInvalidCode)
	got, err = repo.GetVerification(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, verification.StatePending, got.State())

	err = repo.UpdateVerification(ctx, "nobody", func(context.Context, *verification.Record) error { return nil })
	assert.True(t, errorx.IsNotFound(err))
}

func TestVerificationRepo_ReturnedRecordsAreCopies(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u1", "111111")))

	got, err := repo.GetVerification(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, got.VerifyCode("111111", time.Now()))

	again, err := repo.GetVerification(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, verification.StatePending, again.State())
}

func TestVerificationRepo_ConcurrentSubmitsVerifyOnce(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u1", "123456")))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.UpdateVerification(ctx, "u1", func(_ context.Context, rec *verification.Record) error {
				return rec.VerifyCode("123456", time.Now())
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestVerificationRepo_DistinctIdentitiesDoNotBlock(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "slow", "111111")))
	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "fast", "222222")))

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = repo.UpdateVerification(ctx, "slow", func(context.Context, *verification.Record) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	done := make(chan error, 1)
	go func() {
		done <- repo.UpdateVerification(ctx, "fast", func(_ context.Context, rec *verification.Record) error {
			return rec.VerifyCode("222222", time.Now())
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("update of a different identity blocked")
	}
}

func TestVerificationRepo_ReleasesIdentityLocks(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)

	var wg sync.WaitGroup
	for i := range 64 {
		identity := verification.Identity(fmt.Sprintf("u%d", i%8))
		rec := pending(t, identity, "123456")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.ReplaceVerification(ctx, rec)
			_ = repo.UpdateVerification(ctx, identity, func(_ context.Context, rec *verification.Record) error {
				return rec.VerifyCode("123456", time.Now())
			})
			_, _ = repo.DeleteVerification(ctx, identity, verification.RevokeReasonLeft)
		}()
	}
	wg.Wait()

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	assert.Empty(t, repo.locks)
	assert.Empty(t, repo.records)
}

func TestVerificationRepo_ForceAndDelete(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewVerificationRepo(nil)

	forced, err := verification.NewForced("u2", time.Now())
	require.NoError(t, err)
	stored, err := repo.ForceVerification(ctx, forced)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified())

	require.NoError(t, repo.ReplaceVerification(ctx, pending(t, "u3", "333333")))
	forced, err = verification.NewForced("u3", time.Now())
	require.NoError(t, err)
	stored, err = repo.ForceVerification(ctx, forced)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified())
	assert.Equal(t, "user@example.com", stored.Email())

	verified, err := repo.ListVerifications(ctx, verification.Filter{State: verification.StateVerified})
	require.NoError(t, err)
	assert.Len(t, verified, 2)

	removed, err := repo.DeleteVerification(ctx, "u3", verification.RevokeReasonAdmin)
	require.NoError(t, err)
	require.NotNil(t, removed)
	removed, err = repo.DeleteVerification(ctx, "u3", verification.RevokeReasonAdmin)
	require.NoError(t, err)
	assert.Nil(t, removed)

	_, err = repo.GetVerification(ctx, "u3")
	assert.True(t, errorx.IsNotFound(err))
}

func TestBlacklistRepo(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewBlacklistRepo("seed")

	require.NoError(t, repo.AddEntry(ctx, "bad@example.com"))
	blocked, err := repo.IsBlocked(ctx, blacklist.Candidates("1", "", "BAD@example.com")...)
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, repo.RemoveEntry(ctx, "bad@example.com"))
	blocked, err = repo.IsBlocked(ctx, blacklist.Candidates("1", "", "bad@example.com")...)
	require.NoError(t, err)
	assert.False(t, blocked)

	entries, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []blacklist.Entry{"seed"}, entries)
}

func TestSettingsRepo(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	repo := NewSettingsRepo()

	g, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, g.HasCredential())

	require.NoError(t, repo.UpdateSettings(ctx, func(_ context.Context, g *settings.Global) error {
		g.SetCredential("verified", time.Now())
		return nil
	}))
	g, err = repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.CredentialID("verified"), g.CredentialID())
}
