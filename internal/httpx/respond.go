// Package httpx holds the JSON response helpers shared by all handlers.
// Every response uses the same envelope so clients never have to guess the
// body shape.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hoangle-dev/storefront/internal/apperr"
)

// Envelope is the single response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	respond(w, status, Envelope{Success: true, Data: data})
}

// RespondError maps the error taxonomy to an HTTP status and renders the
// envelope. Unrecognized errors become opaque 500s; internal detail is
// logged, never leaked.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("handler: unexpected internal error")
		respond(w, http.StatusInternalServerError, Envelope{Success: false, Message: "internal server error"})
		return
	}

	respond(w, statusFor(appErr.Kind), Envelope{
		Success: false,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}

// RespondMessage renders a bare failure envelope with the given status.
// Used by middleware that rejects before an apperr exists.
func RespondMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, Envelope{Success: status < 400, Message: message})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindValidation, apperr.KindEmptyCart:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal response envelope")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("handler: failed to write response")
	}
}
