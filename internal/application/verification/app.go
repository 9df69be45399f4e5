package verification

import (
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/event"
	"gitlab.com/ucmsv2/emailverify/internal/application/verification/query"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/env"
)

type App struct {
	CMD   Command
	Query Query
	Event Event
}

type Command struct {
	Start               *cmd.StartHandler
	SubmitCode          *cmd.SubmitCodeHandler
	Resend              *cmd.ResendHandler
	ForceVerify         *cmd.ForceVerifyHandler
	Revoke              *cmd.RevokeHandler
	RecordMemberRemoved *cmd.RecordMemberRemovedHandler
}

type Query struct {
	Get  *query.GetVerificationHandler
	List *query.ListVerificationsHandler
	// GetCode is nil outside development modes.
	GetCode *query.GetCodeHandler
}

type Event struct {
	MemberRemoved *event.MemberRemovedHandler
}

// Repo is satisfied by both the postgres and the memory stores.
type Repo interface {
	cmd.Repo
	query.Repo
}

type Args struct {
	Mode       env.Mode
	Repo       Repo
	Blacklist  cmd.BlacklistChecker
	Settings   cmd.SettingsGetter
	Notifier   cmd.Notifier
	Credential cmd.CredentialPort
	Events     cmd.EventPublisher
	Metrics    metrics.Recorder
}

func NewApp(args Args) *App {
	revoke := cmd.NewRevokeHandler(cmd.RevokeHandlerArgs{
		Repo:       args.Repo,
		Credential: args.Credential,
		Metrics:    args.Metrics,
	})

	app := &App{
		CMD: Command{
			Start: cmd.NewStartHandler(cmd.StartHandlerArgs{
				Repo:      args.Repo,
				Blacklist: args.Blacklist,
				Notifier:  args.Notifier,
				Metrics:   args.Metrics,
			}),
			SubmitCode: cmd.NewSubmitCodeHandler(cmd.SubmitCodeHandlerArgs{
				Repo:       args.Repo,
				Settings:   args.Settings,
				Credential: args.Credential,
				Metrics:    args.Metrics,
			}),
			Resend: cmd.NewResendHandler(cmd.ResendHandlerArgs{
				Repo:     args.Repo,
				Notifier: args.Notifier,
				Metrics:  args.Metrics,
			}),
			ForceVerify: cmd.NewForceVerifyHandler(cmd.ForceVerifyHandlerArgs{
				Repo:       args.Repo,
				Settings:   args.Settings,
				Credential: args.Credential,
				Metrics:    args.Metrics,
			}),
			Revoke: revoke,
			RecordMemberRemoved: cmd.NewRecordMemberRemovedHandler(cmd.RecordMemberRemovedHandlerArgs{
				Publisher: args.Events,
			}),
		},
		Query: Query{
			Get:  query.NewGetVerificationHandler(query.GetVerificationHandlerArgs{Repo: args.Repo}),
			List: query.NewListVerificationsHandler(query.ListVerificationsHandlerArgs{Repo: args.Repo}),
		},
		Event: Event{
			MemberRemoved: event.NewMemberRemovedHandler(event.MemberRemovedHandlerArgs{Revoker: revoke}),
		},
	}
	if args.Mode.IsDevelopment() {
		app.Query.GetCode = query.NewGetCodeHandler(args.Repo)
	}

	return app
}
