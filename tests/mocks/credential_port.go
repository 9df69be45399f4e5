package mocks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

type Grant struct {
	Identity     verification.Identity
	CredentialID settings.CredentialID
}

// CredentialPort records grants and revokes.
type CredentialPort struct {
	mu        sync.Mutex
	grants    []Grant
	revokes   []verification.Identity
	grantErr  error
	revokeErr error
}

func NewCredentialPort() *CredentialPort {
	return &CredentialPort{}
}

func (p *CredentialPort) Grant(_ context.Context, identity verification.Identity, id settings.CredentialID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.grantErr != nil {
		return p.grantErr
	}
	p.grants = append(p.grants, Grant{Identity: identity, CredentialID: id})
	return nil
}

func (p *CredentialPort) Revoke(_ context.Context, identity verification.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.revokeErr != nil {
		return p.revokeErr
	}
	p.revokes = append(p.revokes, identity)
	return nil
}

func (p *CredentialPort) FailGrantWith(err error) *CredentialPort {
	p.mu.Lock()
	p.grantErr = err
	p.mu.Unlock()
	return p
}

func (p *CredentialPort) FailRevokeWith(err error) *CredentialPort {
	p.mu.Lock()
	p.revokeErr = err
	p.mu.Unlock()
	return p
}

func (p *CredentialPort) AssertGrantCount(t *testing.T, expected int) *CredentialPort {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.grants, expected)
	return p
}

func (p *CredentialPort) AssertGranted(t *testing.T, identity verification.Identity, id settings.CredentialID) *CredentialPort {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Contains(t, p.grants, Grant{Identity: identity, CredentialID: id})
	return p
}

func (p *CredentialPort) AssertRevokeCount(t *testing.T, expected int) *CredentialPort {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.revokes, expected)
	return p
}

func (p *CredentialPort) AssertRevoked(t *testing.T, identity verification.Identity) *CredentialPort {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Contains(t, p.revokes, identity)
	return p
}
