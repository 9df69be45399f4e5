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

func TestForceVerifyHandler(t *testing.T) {
	t.Parallel()

	t.Run("absent identity gets a bare verified record", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		err := s.Force.Handle(t.Context(), ForceVerify{Identity: "333"})
		require.NoError(t, err)

		s.Repo.AssertVerificationExists(t, "333").
			AssertState(t, verification.StateVerified).
			AssertEmail(t, "").
			AssertVerifiedAtSet(t)
		s.Credential.AssertGranted(t, "333", testCredential)

		e := mocks.RequireEventExists(t, s.Repo.EventRepo, &verification.IdentityVerified{})
		assert.True(t, e.Forced)
	})

	t.Run("pending record keeps its email", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.seedPending(t, "333", "c@x.io", "424242")

		require.NoError(t, s.Force.Handle(t.Context(), ForceVerify{Identity: "333"}))

		s.Repo.AssertVerificationExists(t, "333").
			AssertState(t, verification.StateVerified).
			AssertEmail(t, "c@x.io")
		s.Credential.AssertGrantCount(t, 1)
	})

	t.Run("already verified grants again", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.seedVerified(t, "333", "c@x.io")

		require.NoError(t, s.Force.Handle(t.Context(), ForceVerify{Identity: "333"}))

		s.Credential.AssertGrantCount(t, 1)
		s.Repo.AssertEventCount(t, 0)
	})

	t.Run("grant failure leaves identity verified", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		s.Credential.FailGrantWith(errors.New("platform unavailable"))

		err := s.Force.Handle(t.Context(), ForceVerify{Identity: "333"})
		assert.ErrorIs(t, err, errorx.NewGrantFailed())
		s.Repo.AssertVerificationExists(t, "333").AssertState(t, verification.StateVerified)
	})

	t.Run("no credential configured", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t, withoutCredential())

		err := s.Force.Handle(t.Context(), ForceVerify{Identity: "333"})
		assert.ErrorIs(t, err, errorx.NewNoCredentialConfigured())
		s.Repo.AssertVerificationExists(t, "333").AssertState(t, verification.StateVerified)
	})

	t.Run("invalid identity", func(t *testing.T) {
		t.Parallel()

		s := NewSuite(t)
		err := s.Force.Handle(t.Context(), ForceVerify{Identity: ""})
		require.Error(t, err)
		s.Credential.AssertGrantCount(t, 0)
	})
}
