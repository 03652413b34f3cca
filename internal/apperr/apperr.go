// Package apperr defines the error taxonomy shared by services and handlers.
// Services return (possibly wrapped) sentinel values; handlers translate them
// to HTTP statuses at the boundary. Messages are written for the caller and
// never leak internals such as hash mismatches.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// Validation: malformed input, surfaced verbatim.
	ErrValidation = errors.New("invalid input")

	// Authentication: generic by design, never reveals which factor failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccessDenied       = errors.New("access denied")
	ErrCaptchaRejected    = errors.New("captcha verification failed")

	// Dependency: the external verifier was unreachable. Treated as an
	// authentication failure at the surface (fail closed), logged distinctly.
	ErrCaptchaUnavailable = errors.New("captcha verification failed")

	// Conflict: a business rule rejected the request.
	ErrEmailTaken         = errors.New("email is already in use")
	ErrAlreadyCandidate   = errors.New("account has already applied as a candidate")
	ErrAlreadyVoted       = errors.New("you have already voted")
	ErrInvalidCandidate   = errors.New("invalid candidate")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrVotingClosed       = errors.New("voting is closed")

	ErrNotFound = errors.New("not found")

	// Ambiguous: a ledger write timed out; the vote may or may not have been
	// recorded. Callers should check their vote status instead of retrying.
	ErrAmbiguous = errors.New("request timed out, check vote status before retrying")
)

// Status maps an error to the HTTP status code reported to the caller.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrCaptchaRejected),
		errors.Is(err, ErrCaptchaUnavailable):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrRegistrationClosed), errors.Is(err, ErrVotingClosed):
		return http.StatusForbidden
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrAlreadyCandidate),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrInvalidCandidate),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAmbiguous):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
