package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ARUMANDESU/validation"
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	emailverify "gitlab.com/ucmsv2/emailverify"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var logger = otelslog.NewLogger("emailverify/pkg/httpx")

var localeFiles = []string{
	"locales/en.toml",
	"locales/validation.en.toml",
}

type ErrorHandler struct {
	bundle *i18n.Bundle
	logger *slog.Logger
}

func NewErrorHandler() *ErrorHandler {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, f := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(emailverify.Locales, f); err != nil {
			logger.Error("failed to load locale file", "file", f, "error", err)
		}
	}

	return &ErrorHandler{
		bundle: bundle,
		logger: logger,
	}
}

// Localizer resolves an Accept-Language header value; unknown languages fall
// back to English.
func (h *ErrorHandler) Localizer(acceptLanguage string) *i18n.Localizer {
	return i18n.NewLocalizer(h.bundle, acceptLanguage, language.English.String())
}

// HandleError records err on span, logs it and writes the JSON error
// envelope. Typed errors keep their status, validation errors become 400
// and anything else is a 500 with no detail.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, desc string) {
	if err == nil {
		return
	}
	ctx := r.Context()
	otelx.RecordSpanError(span, err, desc)
	localizer := h.Localizer(r.Header.Get("Accept-Language"))

	var appErr *errorx.I18nError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatusCode()
		h.log(r, status, desc, err)
		if appErr.Code == errorx.CodeRateLimitExceeded {
			if retry, ok := appErr.MessageArgs["RetryAfter"]; ok {
				w.Header().Set("Retry-After", fmt.Sprint(retry))
			}
		}
		writeError(w, r, appErr.Code, appErr.Localize(localizer), status)
		return
	}

	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		h.log(r, http.StatusBadRequest, desc, err)
		writeError(w, r, errorx.CodeValidationFailed, h.localizeErrors(localizer, valErrs), http.StatusBadRequest)
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		h.log(r, http.StatusBadRequest, desc, err)
		writeError(w, r, errorx.CodeValidationFailed, localizeValidation(localizer, valErr), http.StatusBadRequest)
		return
	}

	h.logger.ErrorContext(ctx, "unhandled error", "desc", desc, "error", err)
	internalErr := errorx.NewInternalError()
	writeError(w, r, internalErr.Code, internalErr.Localize(localizer), internalErr.HTTPStatusCode())
}

func (h *ErrorHandler) log(r *http.Request, status int, desc string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else if status < http.StatusBadRequest {
		level = slog.LevelInfo
	}
	h.logger.Log(r.Context(), level, desc, "status", status, "error", err)
}

func (h *ErrorHandler) localizeErrors(localizer *i18n.Localizer, errs validation.Errors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var msg strings.Builder
	for i, field := range fields {
		if i > 0 {
			msg.WriteString("; ")
		}
		fieldErr := errs[field]
		var valErr validation.Error
		if errors.As(fieldErr, &valErr) {
			fmt.Fprintf(&msg, "%s: %s", field, localizeValidation(localizer, valErr))
		} else {
			fmt.Fprintf(&msg, "%s: %s", field, fieldErr.Error())
		}
	}
	return msg.String()
}

func localizeValidation(localizer *i18n.Localizer, valErr validation.Error) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    valErr.Code(),
		TemplateData: valErr.Params(),
	})
	if err != nil {
		return valErr.Error()
	}
	return msg
}

func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	logger.WarnContext(r.Context(), "bad request", "message", message)
	writeError(w, r, errorx.CodeInvalid, message, http.StatusBadRequest)
}

func writeError(w http.ResponseWriter, r *http.Request,
	code errorx.Code,
	message string,
	status int,
) {
	response := Envelope{
		"code":    code,
		"message": message,
		"success": false,
	}

	err := WriteJSON(w, status, response, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
