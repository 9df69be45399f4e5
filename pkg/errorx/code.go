package errorx

type Code string

func (c Code) String() string {
	return string(c)
}

const (
	// Client errors (4xx)
	CodeInvalid            Code = "INVALID"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeMalformedJSON      Code = "MALFORMED_JSON"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	// Verification workflow
	CodeBlocked                Code = "BLOCKED"
	CodeAlreadyVerified        Code = "ALREADY_VERIFIED"
	CodeInvalidCode            Code = "INVALID_CODE"
	CodeNoCredentialConfigured Code = "NO_CREDENTIAL_CONFIGURED"

	// Server errors (5xx)
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeDeliveryFailed   Code = "DELIVERY_FAILED"
	CodeGrantFailed      Code = "GRANT_FAILED"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)
