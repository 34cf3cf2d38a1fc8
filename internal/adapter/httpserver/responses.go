// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the chat tutor REST API: conversation turns, grammar
// corrections, translations, vocabulary extraction and topic listing. The
// package keeps HTTP concerns (decoding, validation, status mapping, guard
// rejection payloads) separate from the business logic in usecase.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/service/guard"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses with the structured
// error envelope. Guard rejections and degraded upstream turns do not come
// through here; they have their own payload shapes.
func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrCircuitOpen):
		code = http.StatusServiceUnavailable
		codeStr = "CIRCUIT_OPEN"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrSchemaInvalid):
		code = http.StatusBadGateway
		codeStr = "SCHEMA_INVALID"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}

// guardRejection is the body for requests bounced by the guard. The flat
// shape (no envelope) is what the chat UI expects on 429/503.
type guardRejection struct {
	Error      string `json:"error"`
	Details    string `json:"details"`
	RetryAfter int    `json:"retryAfter"`
}

// retryAfterSeconds rounds a wait up to whole seconds, at least 1 so clients
// never see a Retry-After of 0 on a rejection.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// writeRateLimited answers a limiter rejection: 429 with Retry-After and the
// quota hint headers.
func writeRateLimited(w http.ResponseWriter, d guard.Decision) {
	retry := retryAfterSeconds(d.RetryAfter)
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	writeJSON(w, http.StatusTooManyRequests, guardRejection{
		Error:      "Too many requests",
		Details:    "Rate limit exceeded. Please wait before trying again.",
		RetryAfter: retry,
	})
}

// writeBreakerOpen answers a breaker rejection: 503 with Retry-After set to
// the time left until the circuit is due to close.
func writeBreakerOpen(w http.ResponseWriter, d guard.Decision) {
	retry := retryAfterSeconds(d.RetryAfter)
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeJSON(w, http.StatusServiceUnavailable, guardRejection{
		Error:      "Service temporarily unavailable",
		Details:    "The AI service is recovering. Please try again shortly.",
		RetryAfter: retry,
	})
}

// degradedStatus picks the status for a failed upstream call: 502 when the
// upstream answered but broke the JSON contract, 503 for timeouts, transport
// errors and upstream rate limits.
func degradedStatus(err error) int {
	if errors.Is(err, domain.ErrSchemaInvalid) {
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

// countsAsBreakerFailure reports whether an upstream error should feed the
// circuit breaker. Contract breakage means the upstream is up; opening the
// circuit for it would only prolong the outage the user sees.
func countsAsBreakerFailure(err error) bool {
	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout),
		errors.Is(err, domain.ErrUpstreamRateLimit),
		errors.Is(err, domain.ErrUpstreamUnavailable):
		return true
	default:
		return false
	}
}

// degradedDetail is the user-facing failure hint carried inside fallback
// payloads. Kept generic; breaker internals are never exposed verbatim.
func degradedDetail(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "The AI service took too long to respond."
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "The AI service is busy right now."
	case errors.Is(err, domain.ErrSchemaInvalid):
		return "The AI service returned an unexpected answer."
	default:
		return "The AI service could not be reached."
	}
}
