package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Attempt outcomes, used as the llm_attempts_total outcome label.
const (
	OutcomeOK            = "ok"
	OutcomeAuth          = "auth"
	OutcomeRateLimited   = "rate_limited"
	OutcomeModelNotFound = "model_not_found"
	OutcomeBadRequest    = "bad_request"
	OutcomeQuota         = "quota"
	OutcomeServer        = "server"
	OutcomeUnreachable   = "unreachable"
	OutcomeEmpty         = "empty"
	OutcomeCanceled      = "canceled"
	OutcomeError         = "error"
)

// AuthError is a rejected or missing token (401/403). Every model behind
// the same provider fails the same way.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return "token rejected: " + e.APIError.Error() }

// RateLimitError is a 429 that survived retries. RetryAfter is the
// provider's hint, zero when absent.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry in %s): %s", e.RetryAfter.Round(time.Second), e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}

// ModelNotFoundError means this tier's model is gone or was never pulled.
// Other models of the provider may still answer.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return "model unavailable: " + e.APIError.Error() }

type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return "request rejected: " + e.APIError.Error() }

// QuotaExceededError is an exhausted free tier or billing limit on the
// provider account.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return "quota exhausted: " + e.APIError.Error() }

// ServerError is a 5xx, including Hugging Face's 503 while a model loads.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return "provider failed: " + e.APIError.Error() }

// UnreachableError is a connection failure to Host.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	return fmt.Sprintf("backend unreachable at %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Outcome classifies the error of one backend attempt. A nil error is
// OutcomeOK.
func Outcome(err error) string {
	var (
		auth     *AuthError
		limited  *RateLimitError
		notFound *ModelNotFoundError
		bad      *BadRequestError
		quota    *QuotaExceededError
		server   *ServerError
		down     *UnreachableError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrMissingAPIKey), errors.As(err, &auth):
		return OutcomeAuth
	case errors.As(err, &limited):
		return OutcomeRateLimited
	case errors.As(err, &notFound):
		return OutcomeModelNotFound
	case errors.As(err, &bad):
		return OutcomeBadRequest
	case errors.As(err, &quota):
		return OutcomeQuota
	case errors.As(err, &server):
		return OutcomeServer
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.As(err, &down):
		return OutcomeUnreachable
	case errors.Is(err, errEmptyAnswer):
		return OutcomeEmpty
	}
	return OutcomeError
}

// providerDown reports whether an attempt outcome rules out every later
// tier served by the same provider.
func providerDown(outcome string) bool {
	switch outcome {
	case OutcomeAuth, OutcomeQuota, OutcomeUnreachable:
		return true
	}
	return false
}
