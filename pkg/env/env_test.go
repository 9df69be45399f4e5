package env

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse(" PROD ")
	require.NoError(t, err)
	assert.Equal(t, Prod, m)
	assert.False(t, m.IsDevelopment())
	assert.Equal(t, slog.LevelInfo, m.SlogLevel())

	m, err = Parse("local")
	require.NoError(t, err)
	assert.True(t, m.IsDevelopment())
	assert.Equal(t, slog.LevelDebug, m.SlogLevel())

	_, err = Parse("staging")
	require.Error(t, err)
}
