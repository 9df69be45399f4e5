package membership

import (
	"github.com/ARUMANDESU/validation"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

const EventStreamName = "events_membership"

type Reason string

const (
	ReasonLeft   Reason = "left"
	ReasonBanned Reason = "banned"
)

func (r Reason) RevokeReason() verification.RevokeReason {
	if r == ReasonBanned {
		return verification.RevokeReasonBanned
	}
	return verification.RevokeReasonLeft
}

// MemberRemoved is emitted by the host platform bridge when an identity
// leaves or is banned.
type MemberRemoved struct {
	event.Header
	event.Otel
	Identity verification.Identity `json:"identity"`
	Reason   Reason                `json:"reason"`
}

func (e MemberRemoved) GetStreamName() string {
	return EventStreamName
}

func NewMemberRemoved(identity verification.Identity, reason Reason) (*MemberRemoved, error) {
	const op = "membership.NewMemberRemoved"
	err := validation.Errors{
		"identity": identity.Validate(),
		"reason":   validation.Validate(string(reason), validation.Required, validation.In(string(ReasonLeft), string(ReasonBanned))),
	}.Filter()
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return &MemberRemoved{
		Header:   event.NewEventHeader(),
		Identity: identity,
		Reason:   reason,
	}, nil
}
