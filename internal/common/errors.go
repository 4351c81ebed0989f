package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrInternalServer = errors.New("internal server error")

	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionInvalid      = errors.New("session is invalid or expired")
	ErrForbidden           = errors.New("forbidden access")
	ErrRecordNotFound      = fmt.Errorf("user record: %w", ErrNotFound)
	ErrMalformedInput      = errors.New("malformed input")
	ErrUpstreamUnreachable = errors.New("subscription upstream unreachable")
	ErrUpstream            = errors.New("subscription upstream returned an error")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInvalidCredential   = errors.New("unknown credential")
)

// UpstreamStatusError is returned when the upstream answered with a non-2xx status.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("subscription upstream returned status %d", e.StatusCode)
}

func (e *UpstreamStatusError) Is(target error) bool {
	return target == ErrUpstream
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrInvalidCredential) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrMalformedInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUpstreamUnreachable) || errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show to clients.
// Unmapped errors collapse into a generic message; their detail belongs in logs.
func PublicMessage(err error) string {
	if HTTPStatusFromError(err) == http.StatusInternalServerError {
		return ErrInternalServer.Error()
	}
	return err.Error()
}
