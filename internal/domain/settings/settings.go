package settings

import (
	"strings"
	"time"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

const KeyCredential = "credential_id"

const MaxCredentialLength = 128

// CredentialID names the credential granted to an identity once verified.
type CredentialID string

func (c CredentialID) String() string {
	return string(c)
}

func NewCredentialID(raw string) (CredentialID, error) {
	const op = "settings.NewCredentialID"
	v := strings.TrimSpace(raw)
	if err := validation.Validate(v, validation.Required, validation.Length(1, MaxCredentialLength)); err != nil {
		return "", errorx.Wrap(err, op)
	}
	return CredentialID(v), nil
}

// Global is the process-wide configuration consulted by the verification
// workflow.
type Global struct {
	credential CredentialID
	updatedAt  time.Time
}

func New() *Global {
	return &Global{}
}

type RehydrateArgs struct {
	Credential CredentialID
	UpdatedAt  time.Time
}

func Rehydrate(args RehydrateArgs) *Global {
	return &Global{
		credential: args.Credential,
		updatedAt:  args.UpdatedAt,
	}
}

func (g *Global) SetCredential(id CredentialID, now time.Time) {
	g.credential = id
	g.updatedAt = now
}

func (g *Global) ClearCredential(now time.Time) {
	g.credential = ""
	g.updatedAt = now
}

func (g *Global) CredentialID() CredentialID {
	if g == nil {
		return ""
	}
	return g.credential
}

// HasCredential reports whether a grant can happen on verification.
func (g *Global) HasCredential() bool {
	return g.CredentialID() != ""
}

func (g *Global) UpdatedAt() time.Time {
	if g == nil {
		return time.Time{}
	}
	return g.updatedAt
}
