package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/apperr"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps err through the taxonomy and writes a message payload.
// Internal errors are logged and hidden behind a generic message; captcha
// dependency failures are logged distinctly for operability but reported
// like any other authentication failure.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)

	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		log.Error().Err(err).Msg("Request failed")
		msg = "internal server error"
	case errors.Is(err, apperr.ErrCaptchaUnavailable):
		log.Error().Err(err).Msg("Captcha dependency failure during sign-in")
		msg = apperr.ErrCaptchaUnavailable.Error()
	}

	writeJSON(w, status, map[string]string{"message": msg})
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.ErrValidation
	}
	return nil
}
