package cmd

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/emailverify/internal/adapters/repos/memory"
	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/tests/mocks"
)

const testCredential settings.CredentialID = "verified-role"

// sequenceCodes hands out 100001, 100002, ... so every issued code differs.
func sequenceCodes() verification.CodeGenerator {
	var n atomic.Int64
	return verification.CodeGeneratorFunc(func() (string, error) {
		return fmt.Sprintf("%06d", 100000+n.Add(1)), nil
	})
}

// Suite wires every command handler to the same stores and ports.
type Suite struct {
	Repo       *mocks.VerificationRepo
	Blacklist  *memory.BlacklistRepo
	Settings   *memory.SettingsRepo
	Notifier   *mocks.Notifier
	Credential *mocks.CredentialPort

	Start  *StartHandler
	Submit *SubmitCodeHandler
	Resend *ResendHandler
	Force  *ForceVerifyHandler
	Revoke *RevokeHandler
}

type suiteOption func(*suiteConfig)

type suiteConfig struct {
	credential settings.CredentialID
	blacklist  []blacklist.Entry
}

func withoutCredential() suiteOption {
	return func(c *suiteConfig) { c.credential = "" }
}

func withBlacklist(entries ...string) suiteOption {
	return func(c *suiteConfig) {
		for _, e := range entries {
			c.blacklist = append(c.blacklist, blacklist.Entry(blacklist.Normalize(e)))
		}
	}
}

func NewSuite(t *testing.T, opts ...suiteOption) *Suite {
	t.Helper()

	cfg := suiteConfig{credential: testCredential}
	for _, o := range opts {
		o(&cfg)
	}

	s := &Suite{
		Repo:       mocks.NewVerificationRepo(),
		Blacklist:  memory.NewBlacklistRepo(cfg.blacklist...),
		Settings:   mocks.NewSettingsRepo(t, cfg.credential),
		Notifier:   mocks.NewNotifier(),
		Credential: mocks.NewCredentialPort(),
	}
	codes := sequenceCodes()

	s.Start = NewStartHandler(StartHandlerArgs{
		Repo:      s.Repo,
		Blacklist: s.Blacklist,
		Notifier:  s.Notifier,
		Codes:     codes,
	})
	s.Submit = NewSubmitCodeHandler(SubmitCodeHandlerArgs{
		Repo:       s.Repo,
		Settings:   s.Settings,
		Credential: s.Credential,
	})
	s.Resend = NewResendHandler(ResendHandlerArgs{
		Repo:     s.Repo,
		Notifier: s.Notifier,
		Codes:    codes,
	})
	s.Force = NewForceVerifyHandler(ForceVerifyHandlerArgs{
		Repo:       s.Repo,
		Settings:   s.Settings,
		Credential: s.Credential,
	})
	s.Revoke = NewRevokeHandler(RevokeHandlerArgs{
		Repo:       s.Repo,
		Credential: s.Credential,
	})

	return s
}

func (s *Suite) seedPending(t *testing.T, identity verification.Identity, email, code string) {
	t.Helper()

	rec, err := verification.NewPending(verification.StartArgs{
		Identity: identity,
		Email:    email,
		Handle:   "member",
		Code:     code,
		Now:      time.Now().UTC(),
	})
	require.NoError(t, err)
	s.Repo.SeedVerification(t, rec)
}

func (s *Suite) seedVerified(t *testing.T, identity verification.Identity, email string) {
	t.Helper()

	rec, err := verification.NewPending(verification.StartArgs{
		Identity: identity,
		Email:    email,
		Code:     "123456",
		Now:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, rec.VerifyCode("123456", time.Now().UTC()))
	s.Repo.SeedVerification(t, rec)
}
