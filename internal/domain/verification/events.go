package verification

import (
	"time"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
)

const EventStreamName = "events_verification"

// Events never carry the verification code.

type VerificationStarted struct {
	event.Header
	event.Otel
	Identity Identity  `json:"identity"`
	Email    string    `json:"email"`
	Handle   string    `json:"handle"`
	IssuedAt time.Time `json:"issued_at"`
}

func (e VerificationStarted) GetStreamName() string {
	return EventStreamName
}

type VerificationCodeReissued struct {
	event.Header
	event.Otel
	Identity Identity  `json:"identity"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

func (e VerificationCodeReissued) GetStreamName() string {
	return EventStreamName
}

type IdentityVerified struct {
	event.Header
	event.Otel
	Identity Identity `json:"identity"`
	Email    string   `json:"email,omitempty"`
	Forced   bool     `json:"forced"`
}

func (e IdentityVerified) GetStreamName() string {
	return EventStreamName
}

type VerificationRevoked struct {
	event.Header
	event.Otel
	Identity Identity     `json:"identity"`
	Email    string       `json:"email,omitempty"`
	Reason   RevokeReason `json:"reason"`
}

func (e VerificationRevoked) GetStreamName() string {
	return EventStreamName
}
