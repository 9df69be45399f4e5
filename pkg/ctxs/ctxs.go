package ctxs

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type ctxKey string

const (
	TxKey        ctxKey = "pgxTxKey"
	PrincipalKey ctxKey = "principalKey"
)

type Role string

const (
	RoleBridge Role = "bridge"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller of an HTTP request.
type Principal struct {
	Subject string
	Role    Role
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

func Tx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(TxKey).(pgx.Tx)
	return tx, ok
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func PrincipalFromCtx(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}
