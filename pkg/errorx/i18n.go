package errorx

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"gitlab.com/ucmsv2/emailverify/pkg/i18nx"
)

type I18nError struct {
	cause       error
	MessageKey  string
	MessageArgs map[string]any
	HTTPCode    int
	Code        Code
}

func (e *I18nError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.MessageKey)
	}

	return fmt.Sprintf("[%s] %s: %s", e.Code, e.MessageKey, e.cause)
}

func (e *I18nError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *I18nError carrying the same Code.
func (e *I18nError) Is(target error) bool {
	t, ok := target.(*I18nError)
	if !ok || e == nil || t == nil {
		return false
	}

	return e.Code == t.Code
}

func (e *I18nError) Localize(localizer *i18n.Localizer) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    e.MessageKey,
		TemplateData: e.MessageArgs,
	})
	if err != nil {
		return e.MessageKey
	}

	return msg
}

func (e *I18nError) HTTPStatusCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}

	return HTTPStatusCode(e.Code)
}

func (e *I18nError) WithHTTPCode(code int) *I18nError {
	e.HTTPCode = code
	return e
}

func (e *I18nError) WithArgs(args map[string]any) *I18nError {
	if e.MessageArgs == nil {
		e.MessageArgs = make(map[string]any)
	}

	maps.Copy(e.MessageArgs, args)

	return e
}

func (e *I18nError) WithCause(cause error) *I18nError {
	e.cause = cause
	return e
}

func HTTPStatusCode(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalid, CodeValidationFailed, CodeMalformedJSON:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden, CodeBlocked:
		return http.StatusForbidden
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeInvalidCode:
		return http.StatusUnprocessableEntity
	case CodeAlreadyVerified:
		return http.StatusOK
	case CodeNoCredentialConfigured:
		return http.StatusConflict
	case CodeDeliveryFailed, CodeGrantFailed:
		return http.StatusBadGateway
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}

	var i18nErr *I18nError
	if errors.As(err, &i18nErr) {
		return i18nErr.Code == code
	}

	return false
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsTyped reports whether err carries an *I18nError anywhere in its chain.
func IsTyped(err error) bool {
	var i18nErr *I18nError
	return errors.As(err, &i18nErr)
}

func newError(key string, code Code) *I18nError {
	return &I18nError{
		MessageKey: key,
		Code:       code,
		HTTPCode:   HTTPStatusCode(code),
	}
}

// Client Errors (4xx)
func NewInvalidRequest() *I18nError {
	return newError(i18nx.KeyInvalid, CodeInvalid)
}

func NewValidationFailed() *I18nError {
	return newError(i18nx.KeyValidationFailed, CodeValidationFailed)
}

func NewMalformedJSON() *I18nError {
	return newError(i18nx.KeyMalformedJSON, CodeMalformedJSON)
}

func NewUnauthorized() *I18nError {
	return newError(i18nx.KeyUnauthorized, CodeUnauthorized)
}

func NewInvalidCredentials() *I18nError {
	return newError(i18nx.KeyInvalidCredentials, CodeInvalidCredentials)
}

func NewForbidden() *I18nError {
	return newError(i18nx.KeyForbidden, CodeForbidden)
}

func NewNotFound() *I18nError {
	return newError(i18nx.KeyNotFound, CodeNotFound)
}

func NewResourceNotFound(resourceType string) *I18nError {
	return newError(i18nx.KeyNotFoundWithType, CodeNotFound).
		WithArgs(map[string]any{"ResourceType": resourceType})
}

func NewRateLimitExceededWithRetry(retryAfter int) *I18nError {
	return newError(i18nx.KeyRateLimitExceededWithTime, CodeRateLimitExceeded).
		WithArgs(map[string]any{"RetryAfter": retryAfter})
}

// Verification workflow
func NewBlocked() *I18nError {
	return newError(i18nx.KeyBlocked, CodeBlocked)
}

func NewAlreadyVerified() *I18nError {
	return newError(i18nx.KeyAlreadyVerified, CodeAlreadyVerified)
}

func NewInvalidCode() *I18nError {
	return newError(i18nx.KeyInvalidCode, CodeInvalidCode)
}

func NewNoCredentialConfigured() *I18nError {
	return newError(i18nx.KeyNoCredentialConfigured, CodeNoCredentialConfigured)
}

// Server Errors (5xx)
func NewInternalError() *I18nError {
	return newError(i18nx.KeyInternalError, CodeInternal)
}

func NewDeliveryFailed() *I18nError {
	return newError(i18nx.KeyDeliveryFailed, CodeDeliveryFailed)
}

func NewGrantFailed() *I18nError {
	return newError(i18nx.KeyGrantFailed, CodeGrantFailed)
}

func NewStoreUnavailable() *I18nError {
	return newError(i18nx.KeyStoreUnavailable, CodeStoreUnavailable)
}
