package main

import (
	"flag"
	"fmt"
	"os"

	"gitlab.com/ucmsv2/emailverify/internal/config"
	"gitlab.com/ucmsv2/emailverify/internal/ports/http/middlewares"
	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
)

// runToken prints a bearer token signed with the configured secret:
//
//	api token -sub discord-bridge -role bridge -ttl 720h
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "token subject")
	role := fs.String("role", string(ctxs.RoleBridge), "bridge or admin")
	ttl := fs.Duration("ttl", middlewares.DefaultTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *sub == "" {
		return fmt.Errorf("-sub is required")
	}
	r := ctxs.Role(*role)
	if r != ctxs.RoleBridge && r != ctxs.RoleAdmin {
		return fmt.Errorf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := middlewares.NewToken([]byte(cfg.Auth.Secret), *sub, r, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
