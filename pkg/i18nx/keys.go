package i18nx

// Error message keys
const (
	// Client errors
	KeyInvalid                   = "invalid"
	KeyValidationFailed          = "validation_failed"
	KeyMalformedJSON             = "malformed_json"
	KeyUnauthorized              = "unauthorized"
	KeyInvalidCredentials        = "invalid_credentials"
	KeyForbidden                 = "forbidden"
	KeyNotFound                  = "not_found"
	KeyNotFoundWithType          = "not_found_with_type"
	KeyRateLimitExceededWithTime = "rate_limit_exceeded_with_time"

	// Verification workflow
	KeyBlocked                = "business_error_blocked"
	KeyAlreadyVerified        = "business_error_already_verified"
	KeyInvalidCode            = "business_error_invalid_verification_code"
	KeyNoCredentialConfigured = "business_error_no_credential_configured"

	// Server errors
	KeyInternalError    = "internal_error"
	KeyDeliveryFailed   = "upstream_delivery_failed"
	KeyGrantFailed      = "upstream_grant_failed"
	KeyStoreUnavailable = "store_unavailable"
)

// Validation message keys
const (
	ValidationRequired         = "validation_required"
	ValidationLengthTooLong    = "validation_length_too_long"
	ValidationLengthOutOfRange = "validation_length_out_of_range"
	ValidationIsEmail          = "validation_is_email"
	ValidationIsDigit          = "validation_is_digit"
	ValidationIsCode           = "validation_is_code"
	ValidationIsIdentity       = "validation_is_identity"
	ValidationInInvalid        = "validation_in_invalid"
)
