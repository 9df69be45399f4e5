package randcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non digit in %q", code)
		}
		seen[code] = struct{}{}
	}

	// 200 draws out of a million: a handful of collisions at most
	assert.Greater(t, len(seen), 190)
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	t.Parallel()

	for _, l := range []int{-1, 0, 19} {
		_, err := GenerateNumericCode(l)
		assert.Error(t, err, "length %d", l)
	}
}
