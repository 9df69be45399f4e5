package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

func TestNewMemberRemoved(t *testing.T) {
	t.Parallel()

	e, err := NewMemberRemoved("42", ReasonBanned)
	require.NoError(t, err)
	assert.Equal(t, verification.Identity("42"), e.Identity)
	assert.Equal(t, verification.RevokeReasonBanned, e.Reason.RevokeReason())
	assert.Equal(t, EventStreamName, e.GetStreamName())

	_, err = NewMemberRemoved("42", "kicked")
	assert.Error(t, err)
	_, err = NewMemberRemoved("", ReasonLeft)
	assert.Error(t, err)
}
