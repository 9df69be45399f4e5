package randcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const maxNumericLength = 18

// GenerateNumericCode returns a zero-padded decimal string of exactly length
// digits, drawn uniformly from crypto/rand.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 || length > maxNumericLength {
		return "", fmt.Errorf("randcode: length %d out of range [1, %d]", length, maxNumericLength)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("randcode: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
