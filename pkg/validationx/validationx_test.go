package validationx

import (
	"strings"
	"testing"

	"github.com/ARUMANDESU/validation"
	"github.com/stretchr/testify/assert"
)

func TestIdentityRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"123456789012345678", false},
		{"user-42", false},
		{"", true},
		{"has space", true},
		{"tab\there", true},
		{strings.Repeat("x", MaxIdentityLength+1), true},
	}

	for _, tt := range tests {
		err := validation.Validate(tt.value, IdentityRules...)
		if tt.wantErr {
			assert.Error(t, err, "value %q", tt.value)
		} else {
			assert.NoError(t, err, "value %q", tt.value)
		}
	}
}

func TestEmailRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validation.Validate("a@b.com", EmailRules...))
	assert.Error(t, validation.Validate("", EmailRules...))
	assert.Error(t, validation.Validate("not-an-email", EmailRules...))
}

func TestCodeRules(t *testing.T) {
	t.Parallel()

	rules := CodeRules(6)
	assert.NoError(t, validation.Validate("012345", rules...))
	assert.Error(t, validation.Validate("12345", rules...))
	assert.Error(t, validation.Validate("1234567", rules...))
	assert.Error(t, validation.Validate("12a456", rules...))
	assert.Error(t, validation.Validate("", rules...))
}

func TestHandleRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validation.Validate("", HandleRules...))
	assert.NoError(t, validation.Validate("Some Name#0001", HandleRules...))
	assert.Error(t, validation.Validate(strings.Repeat("h", MaxHandleLength+1), HandleRules...))
}
