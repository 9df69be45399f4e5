package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

type Envelope map[string]any

const maxRequestBodySize = 64 << 10 // 64KB

// ReadJSON decodes exactly one JSON value from the body into v. Decode
// failures are returned as MALFORMED_JSON errors carrying the cause.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errorx.NewMalformedJSON().WithCause(describeDecodeError(err))
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errorx.NewMalformedJSON().WithCause(fmt.Errorf("body must only contain a single JSON value: %w", err))
	}

	return nil
}

func describeDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("badly-formed JSON (at character %d): %w", syntaxError.Offset, err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("body contains badly-formed JSON: %w", err)
	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q: %w", unmarshalTypeError.Field, err)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d): %w", unmarshalTypeError.Offset, err)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("body must not be empty: %w", err)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Errorf("body contains unknown field %s: %w", fieldName, err)
	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d KB: %w", maxBytesError.Limit/1024, err)
	default:
		return fmt.Errorf("body contains invalid JSON: %w", err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func Success(w http.ResponseWriter, r *http.Request, status int, message Envelope) {
	if message == nil {
		message = make(Envelope, 1)
	}
	message["success"] = true

	err := WriteJSON(w, status, message, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to write success response", "status", status, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
