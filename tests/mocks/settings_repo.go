package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
)

// NewSettingsRepo returns an in-memory settings store, configured with id
// unless it is empty.
func NewSettingsRepo(t *testing.T, id settings.CredentialID) *memory.SettingsRepo {
	t.Helper()

	repo := memory.NewSettingsRepo()
	if id == "" {
		return repo
	}
	err := repo.UpdateSettings(t.Context(), func(_ context.Context, g *settings.Global) error {
		g.SetCredential(id, time.Now().UTC())
		return nil
	})
	require.NoError(t, err)
	return repo
}
