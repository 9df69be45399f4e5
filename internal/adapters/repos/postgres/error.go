package postgres

import (
	"errors"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

var (
	ErrNoRowsAffected = errors.New("no rows affected")
	ErrNilFunc        = errors.New("update function cannot be nil")
)

// storeErr passes typed errors through and reports anything else coming out
// of pgx as STORE_UNAVAILABLE.
func storeErr(err error) error {
	if err == nil || errorx.IsTyped(err) {
		return err
	}
	return errorx.NewStoreUnavailable().WithCause(err)
}
