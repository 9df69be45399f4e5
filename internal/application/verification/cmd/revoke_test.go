package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/tests/mocks"
)

func TestRevokeHandler(t *testing.T) {
	t.Parallel()

	t.Run("verified identity", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.seedVerified(t, "444", "d@x.io")

		err := s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: verification.RevokeReasonAdmin})
		require.NoError(t, err)

		s.Repo.AssertVerificationNotExists(t, "444")
		s.Credential.AssertRevoked(t, "444")

		e := mocks.RequireEventExists(t, s.Repo.EventRepo, &verification.VerificationRevoked{})
		assert.Equal(t, verification.RevokeReasonAdmin, e.Reason)
	})

	t.Run("unknown identity still revokes the credential", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)

		err := s.Revoke.Handle(t.Context(), Revoke{Identity: "404", Reason: verification.RevokeReasonLeft})
		require.NoError(t, err)
		s.Credential.AssertRevokeCount(t, 1)
		s.Repo.AssertEventCount(t, 0)
	})

	t.Run("credential revoke failure is swallowed", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.seedVerified(t, "444", "d@x.io")
		s.Credential.FailRevokeWith(errors.New("platform unavailable"))

		err := s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: verification.RevokeReasonAdmin})
		require.NoError(t, err)
		s.Repo.AssertVerificationNotExists(t, "444")
	})

	t.Run("store failure on admin revoke is returned", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.Repo.FailWith(errors.New("connection reset"))

		err := s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: verification.RevokeReasonAdmin})
		assert.ErrorIs(t, err, errorx.NewStoreUnavailable())
		s.Credential.AssertRevokeCount(t, 0)
	})

	t.Run("store failure on lifecycle revoke is swallowed", func(t *testing.T) {
		t.Parallel()

		for _, reason := range []verification.RevokeReason{verification.RevokeReasonLeft, verification.RevokeReasonBanned} {
			s := NewSuite(t)
			s.Repo.FailWith(errorx.NewStoreUnavailable())

			err := s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: reason})
			assert.NoError(t, err, reason)
		}
	})

	t.Run("unknown reason", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		err := s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: "kicked"})
		require.Error(t, err)
		assert.False(t, errorx.IsTyped(err))
	})
}

// After a revoke the identity starts over exactly like a new one.
func TestRevokeThenStart(t *testing.T) {
	t.Parallel()

	s := NewSuite(t)
	s.seedVerified(t, "444", "d@x.io")
	require.NoError(t, s.Revoke.Handle(t.Context(), Revoke{Identity: "444", Reason: verification.RevokeReasonAdmin}))

	err := s.Resend.Handle(t.Context(), Resend{Identity: "444"})
	assert.True(t, errorx.IsNotFound(err))
	err = s.Submit.Handle(t.Context(), SubmitCode{Identity: "444", Code: "123456"})
	assert.True(t, errorx.IsNotFound(err))

	require.NoError(t, s.Start.Handle(t.Context(), Start{Identity: "444", Email: "d@x.io"}))
	s.Repo.AssertVerificationExists(t, "444").AssertState(t, verification.StatePending)
}

func TestRecordMemberRemovedHandler(t *testing.T) {
	t.Parallel()

	events := mocks.NewEventRepo()
	h := NewRecordMemberRemovedHandler(RecordMemberRemovedHandlerArgs{Publisher: events})

	require.NoError(t, h.Handle(t.Context(), RecordMemberRemoved{Identity: "555", Reason: "banned"}))
	events.AssertEventCount(t, 1)

	err := h.Handle(t.Context(), RecordMemberRemoved{Identity: "555", Reason: "kicked"})
	require.Error(t, err)
	events.AssertEventCount(t, 1)
}
