package cmd

import (
	"context"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
)

type Repo interface {
	GetVerification(ctx context.Context, identity verification.Identity) (*verification.Record, error)
	ReplaceVerification(ctx context.Context, rec *verification.Record) error
	UpdateVerification(ctx context.Context, identity verification.Identity, fn func(context.Context, *verification.Record) error) error
	ForceVerification(ctx context.Context, rec *verification.Record) (*verification.Record, error)
	DeleteVerification(ctx context.Context, identity verification.Identity, reason verification.RevokeReason) (*verification.Record, error)
}

type BlacklistChecker interface {
	IsBlocked(ctx context.Context, candidates ...blacklist.Entry) (bool, error)
}

type SettingsGetter interface {
	GetSettings(ctx context.Context) (*settings.Global, error)
}

// Notifier hands a code to the identity's mailbox.
type Notifier interface {
	Deliver(ctx context.Context, address, code string) error
}

type CredentialPort interface {
	Grant(ctx context.Context, identity verification.Identity, id settings.CredentialID) error
	Revoke(ctx context.Context, identity verification.Identity) error
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}
