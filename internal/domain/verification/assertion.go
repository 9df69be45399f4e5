package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RecordAssertion struct {
	Record *Record
}

func NewRecordAssertion(r *Record) *RecordAssertion {
	return &RecordAssertion{Record: r}
}

func (ra *RecordAssertion) AssertState(t *testing.T, expected State) *RecordAssertion {
	t.Helper()
	require.NotNil(t, ra.Record, "Expected verification record to exist")
	assert.Equal(t, expected, ra.Record.state, "Expected state to be %s, got %s", expected, ra.Record.state)
	return ra
}

func (ra *RecordAssertion) AssertIdentity(t *testing.T, expected Identity) *RecordAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Record.identity)
	return ra
}

func (ra *RecordAssertion) AssertEmail(t *testing.T, expected string) *RecordAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Record.email, "Expected email to be %s, got %s", expected, ra.Record.email)
	return ra
}

func (ra *RecordAssertion) AssertHandle(t *testing.T, expected string) *RecordAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Record.handle)
	return ra
}

func (ra *RecordAssertion) AssertCode(t *testing.T, expected string) *RecordAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Record.code, "Expected code to be %s, got %s", expected, ra.Record.code)
	return ra
}

func (ra *RecordAssertion) AssertCodeIsNot(t *testing.T, unexpected string) *RecordAssertion {
	t.Helper()
	assert.NotEqual(t, unexpected, ra.Record.code)
	return ra
}

func (ra *RecordAssertion) AssertIssuedAt(t *testing.T, expected time.Time) *RecordAssertion {
	t.Helper()
	assert.WithinDuration(t, expected, ra.Record.issuedAt, time.Second)
	return ra
}

func (ra *RecordAssertion) AssertVerifiedAtSet(t *testing.T) *RecordAssertion {
	t.Helper()
	assert.False(t, ra.Record.verifiedAt.IsZero(), "Expected verifiedAt to be set")
	return ra
}

func (ra *RecordAssertion) AssertEventCount(t *testing.T, expected int) *RecordAssertion {
	t.Helper()
	assert.Len(t, ra.Record.GetUncommittedEvents(), expected)
	return ra
}
