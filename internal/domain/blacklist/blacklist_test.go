package blacklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	t.Parallel()

	e, err := NewEntry("  Spammer@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, Entry("spammer@example.com"), e)

	_, err = NewEntry("   ")
	assert.Error(t, err)
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	got := Candidates("42", "Mallory", "mallory@example.com")
	assert.Equal(t, []Entry{"42", "mallory", "mallory@example.com"}, got)

	got = Candidates("42", "", "42")
	assert.Equal(t, []Entry{"42"}, got)

	assert.Equal(t, []string{"42"}, Strings(got))
}
