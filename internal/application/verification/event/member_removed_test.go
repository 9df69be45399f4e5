package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/domain/membership"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/tests/mocks"
)

type stubRevoker struct {
	calls []cmd.Revoke
	err   error
}

func (s *stubRevoker) Handle(_ context.Context, c cmd.Revoke) error {
	s.calls = append(s.calls, c)
	return s.err
}

func TestMemberRemovedHandler_RevokesWithLifecycleReason(t *testing.T) {
	t.Parallel()

	repo := mocks.NewVerificationRepo()
	credential := mocks.NewCredentialPort()
	h := NewMemberRemovedHandler(MemberRemovedHandlerArgs{
		Revoker: cmd.NewRevokeHandler(cmd.RevokeHandlerArgs{Repo: repo, Credential: credential}),
	})

	forced, err := verification.NewForced("777", time.Now().UTC())
	require.NoError(t, err)
	repo.SeedVerification(t, forced)

	e, err := membership.NewMemberRemoved("777", membership.ReasonBanned)
	require.NoError(t, err)

	require.NoError(t, h.Handle(t.Context(), e))

	repo.AssertVerificationNotExists(t, "777")
	credential.AssertRevoked(t, "777")
	revoked := mocks.RequireEventExists(t, repo.EventRepo, &verification.VerificationRevoked{})
	assert.Equal(t, verification.RevokeReasonBanned, revoked.Reason)
}

func TestMemberRemovedHandler_SwallowsErrors(t *testing.T) {
	t.Parallel()

	revoker := &stubRevoker{err: errors.New("boom")}
	h := NewMemberRemovedHandler(MemberRemovedHandlerArgs{Revoker: revoker})

	e, err := membership.NewMemberRemoved("777", membership.ReasonLeft)
	require.NoError(t, err)

	assert.NoError(t, h.Handle(t.Context(), e))
	require.Len(t, revoker.calls, 1)
	assert.Equal(t, verification.RevokeReasonLeft, revoker.calls[0].Reason)

	assert.NoError(t, h.Handle(t.Context(), nil))
}
