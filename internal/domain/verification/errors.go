package verification

import "gitlab.com/ucmsv2/emailverify/pkg/errorx"

// Sentinels compare by code; wrap them, never attach a cause.
var (
	ErrNotFound        = errorx.NewResourceNotFound("verification")
	ErrNoPendingRecord = errorx.NewResourceNotFound("pending verification")
	ErrAlreadyVerified = errorx.NewAlreadyVerified()
	ErrInvalidCode     = errorx.NewInvalidCode()
)
