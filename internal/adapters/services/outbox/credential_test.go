package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/domain/credential"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
)

type capturePublisher struct {
	events []event.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, events ...event.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, events...)
	return nil
}

func TestCredentialPort(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	port := NewCredentialPort(CredentialPortArgs{Publisher: pub})

	require.NoError(t, port.Grant(t.Context(), "42", "verified"))
	require.NoError(t, port.Revoke(t.Context(), "42"))
	require.Len(t, pub.events, 2)

	granted, ok := pub.events[0].(*credential.CredentialGranted)
	require.True(t, ok)
	assert.Equal(t, "42", granted.Identity.String())
	assert.Equal(t, "verified", granted.CredentialID.String())
	assert.Equal(t, credential.EventStreamName, granted.GetStreamName())

	_, ok = pub.events[1].(*credential.CredentialRevoked)
	assert.True(t, ok)

	pub.err = errors.New("outbox down")
	assert.ErrorIs(t, port.Grant(t.Context(), "42", "verified"), pub.err)
}
