// Package captcha verifies Cloudflare Turnstile challenge tokens.
//
// The verifier fails closed: if the siteverify endpoint cannot be reached
// the sign-in is denied rather than letting the control be bypassed under a
// network fault. Operators who prefer availability can set fail-open, which
// only forgives transport errors; a definitive rejection always fails.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/apperr"
)

const siteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a challenge token.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// Turnstile verifies tokens against the Cloudflare siteverify endpoint.
type Turnstile struct {
	secret   string
	failOpen bool
	endpoint string
	client   *http.Client
}

// NewTurnstile creates a Turnstile verifier. An empty secret disables
// verification entirely; this is the staging mode, distinct from fail-open.
func NewTurnstile(secret string, failOpen bool) *Turnstile {
	if secret == "" {
		log.Warn().Msg("TURNSTILE_SECRET_KEY not set, captcha verification is disabled")
	}
	return &Turnstile{
		secret:   secret,
		failOpen: failOpen,
		endpoint: siteverifyURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the token. The call is bounded by the request context plus
// the client timeout, so a hung verifier cannot pin the request.
func (t *Turnstile) Verify(ctx context.Context, token string) error {
	if t.secret == "" {
		return nil
	}

	form := url.Values{}
	form.Set("secret", t.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return t.unavailable(fmt.Errorf("siteverify request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return t.unavailable(fmt.Errorf("siteverify returned status %d", resp.StatusCode))
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return t.unavailable(fmt.Errorf("decoding siteverify response: %w", err))
	}

	if !result.Success {
		log.Warn().Strs("error_codes", result.ErrorCodes).Msg("Captcha token rejected")
		return apperr.ErrCaptchaRejected
	}
	return nil
}

// unavailable handles verifier-unreachable conditions per the configured
// policy. The dependency failure is logged distinctly either way.
func (t *Turnstile) unavailable(err error) error {
	if t.failOpen {
		log.Warn().Err(err).Msg("Captcha verifier unreachable, failing open")
		return nil
	}
	log.Error().Err(err).Msg("Captcha verifier unreachable, failing closed")
	return fmt.Errorf("%w: %s", apperr.ErrCaptchaUnavailable, err)
}
