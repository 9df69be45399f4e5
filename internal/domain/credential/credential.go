package credential

import (
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

const EventStreamName = "events_credential"

// CredentialGranted asks the host platform to attach the credential to the
// identity.
type CredentialGranted struct {
	event.Header
	event.Otel
	Identity     verification.Identity `json:"identity"`
	CredentialID settings.CredentialID `json:"credential_id"`
}

func (e CredentialGranted) GetStreamName() string {
	return EventStreamName
}

// CredentialRevoked asks the host platform to detach the verification
// credential from the identity.
type CredentialRevoked struct {
	event.Header
	event.Otel
	Identity verification.Identity `json:"identity"`
}

func (e CredentialRevoked) GetStreamName() string {
	return EventStreamName
}

func NewGranted(identity verification.Identity, id settings.CredentialID) *CredentialGranted {
	return &CredentialGranted{
		Header:       event.NewEventHeader(),
		Identity:     identity,
		CredentialID: id,
	}
}

func NewRevoked(identity verification.Identity) *CredentialRevoked {
	return &CredentialRevoked{
		Header:   event.NewEventHeader(),
		Identity: identity,
	}
}
