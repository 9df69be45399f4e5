package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobal_Credential(t *testing.T) {
	t.Parallel()

	var nilGlobal *Global
	assert.False(t, nilGlobal.HasCredential())

	g := New()
	assert.False(t, g.HasCredential())

	id, err := NewCredentialID("  verified-role ")
	require.NoError(t, err)
	now := time.Now()
	g.SetCredential(id, now)
	assert.True(t, g.HasCredential())
	assert.Equal(t, CredentialID("verified-role"), g.CredentialID())
	assert.Equal(t, now, g.UpdatedAt())

	g.ClearCredential(now)
	assert.False(t, g.HasCredential())

	_, err = NewCredentialID(" ")
	assert.Error(t, err)
}
