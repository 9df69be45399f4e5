package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

func seed(t *testing.T) *memory.VerificationRepo {
	t.Helper()

	repo := memory.NewVerificationRepo(nil)
	now := time.Now().UTC()

	pending, err := verification.NewPending(verification.StartArgs{
		Identity: "200", Email: "pending@example.com", Code: "111111", Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceVerification(t.Context(), pending))

	forced, err := verification.NewForced("100", now)
	require.NoError(t, err)
	_, err = repo.ForceVerification(t.Context(), forced)
	require.NoError(t, err)

	return repo
}

func TestGetVerificationHandler(t *testing.T) {
	t.Parallel()

	h := NewGetVerificationHandler(GetVerificationHandlerArgs{Repo: seed(t)})

	res, err := h.Handle(t.Context(), GetVerification{Identity: "200"})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.State)
	assert.False(t, res.Verified)
	assert.Equal(t, "pe****@example.com", res.Email)
	assert.NotNil(t, res.IssuedAt)
	assert.Nil(t, res.VerifiedAt)

	_, err = h.Handle(t.Context(), GetVerification{Identity: "404"})
	assert.True(t, errorx.IsNotFound(err))
}

func TestListVerificationsHandler(t *testing.T) {
	t.Parallel()

	h := NewListVerificationsHandler(ListVerificationsHandlerArgs{Repo: seed(t)})

	all, err := h.Handle(t.Context(), ListVerifications{})
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)
	assert.Equal(t, "100", all.Verifications[0].Identity)
	assert.Equal(t, "200", all.Verifications[1].Identity)
	assert.Equal(t, "pending@example.com", all.Verifications[1].Email)

	pending, err := h.Handle(t.Context(), ListVerifications{State: verification.StatePending})
	require.NoError(t, err)
	require.Equal(t, 1, pending.Total)
	assert.Equal(t, "200", pending.Verifications[0].Identity)
}

func TestGetCodeHandler(t *testing.T) {
	t.Parallel()

	h := NewGetCodeHandler(seed(t))

	code, err := h.Handle(t.Context(), "200")
	require.NoError(t, err)
	assert.Equal(t, "111111", code)

	_, err = h.Handle(t.Context(), "100")
	assert.True(t, errorx.IsNotFound(err))
}
