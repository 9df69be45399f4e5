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

func TestStartHandler_HappyPath(t *testing.T) {
	t.Parallel()

	s := NewSuite(t)
	cmd := Start{Identity: "111", Handle: "alice", Email: "a@x.io"}

	err := s.Start.Handle(t.Context(), cmd)
	require.NoError(t, err)

	delivery := s.Notifier.RequireLastDelivery(t, "a@x.io")
	assert.Len(t, delivery.Code, verification.CodeLength)

	s.Repo.AssertVerificationExists(t, "111").
		AssertState(t, verification.StatePending).
		AssertEmail(t, "a@x.io").
		AssertHandle(t, "alice").
		AssertCode(t, delivery.Code)

	e := mocks.RequireEventExists(t, s.Repo.EventRepo, &verification.VerificationStarted{})
	assert.Equal(t, verification.Identity("111"), e.Identity)
}

func TestStartHandler_RestartReplacesRecord(t *testing.T) {
	t.Parallel()

	t.Run("pending record gets a new code and email", func(t *testing.T) {
		s := NewSuite(t)
		s.seedPending(t, "111", "old@x.io", "555555")

		err := s.Start.Handle(t.Context(), Start{Identity: "111", Email: "new@x.io"})
		require.NoError(t, err)

		s.Repo.AssertVerificationExists(t, "111").
			AssertState(t, verification.StatePending).
			AssertEmail(t, "new@x.io").
			AssertCodeIsNot(t, "555555")
	})

	t.Run("verified record drops back to pending", func(t *testing.T) {
		s := NewSuite(t)
		s.seedVerified(t, "111", "a@x.io")

		err := s.Start.Handle(t.Context(), Start{Identity: "111", Email: "a@x.io"})
		require.NoError(t, err)

		s.Repo.AssertVerificationExists(t, "111").AssertState(t, verification.StatePending)
	})
}

func TestStartHandler_Blocked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
		cmd   Start
	}{
		{"by identity", "222", Start{Identity: "222", Email: "b@x.io"}},
		{"by handle", "Mallory", Start{Identity: "223", Handle: "mallory", Email: "m@x.io"}},
		{"by email", "bad@x.io", Start{Identity: "224", Email: "BAD@x.io"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSuite(t, withBlacklist(tt.entry))

			err := s.Start.Handle(t.Context(), tt.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, errorx.NewBlocked())

			s.Repo.AssertVerificationNotExists(t, tt.cmd.Identity)
			s.Repo.AssertEventCount(t, 0)
			s.Notifier.AssertNoDeliveries(t)
		})
	}
}

func TestStartHandler_DeliveryFailed(t *testing.T) {
	t.Parallel()

	s := NewSuite(t)
	smtpErr := errors.New("dial tcp: connection refused")
	s.Notifier.FailWith(smtpErr)

	err := s.Start.Handle(t.Context(), Start{Identity: "111", Email: "a@x.io"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errorx.NewDeliveryFailed())
	assert.ErrorIs(t, err, smtpErr)

	s.Repo.AssertVerificationExists(t, "111").AssertState(t, verification.StatePending)
}

func TestStartHandler_StoreUnavailable(t *testing.T) {
	t.Parallel()

	s := NewSuite(t)
	s.Repo.FailWith(errorx.NewStoreUnavailable())

	err := s.Start.Handle(t.Context(), Start{Identity: "111", Email: "a@x.io"})
	assert.ErrorIs(t, err, errorx.NewStoreUnavailable())
	s.Notifier.AssertNoDeliveries(t)
}

func TestStartHandler_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Start
	}{
		{"empty identity", Start{Email: "a@x.io"}},
		{"empty email", Start{Identity: "111"}},
		{"malformed email", Start{Identity: "111", Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSuite(t)
			err := s.Start.Handle(t.Context(), tt.cmd)
			require.Error(t, err)
			assert.False(t, errorx.IsTyped(err))
			s.Notifier.AssertNoDeliveries(t)
		})
	}
}
