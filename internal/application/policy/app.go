package policy

import (
	"gitlab.com/ucmsv2/emailverify/internal/application/policy/cmd"
	"gitlab.com/ucmsv2/emailverify/internal/application/policy/query"
)

type App struct {
	CMD   *cmd.Handler
	Query *query.Handler
}

type BlacklistRepo interface {
	cmd.BlacklistRepo
	query.BlacklistReader
}

type SettingsRepo interface {
	cmd.SettingsRepo
	query.SettingsReader
}

type Args struct {
	Blacklist BlacklistRepo
	Settings  SettingsRepo
}

func NewApp(args Args) *App {
	return &App{
		CMD:   cmd.NewHandler(cmd.HandlerArgs{Blacklist: args.Blacklist, Settings: args.Settings}),
		Query: query.NewHandler(query.HandlerArgs{Blacklist: args.Blacklist, Settings: args.Settings}),
	}
}
