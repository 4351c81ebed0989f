package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{ErrSessionInvalid, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", ErrRecordNotFound), http.StatusNotFound},
		{ErrMalformedInput, http.StatusBadRequest},
		{ErrUpstreamUnreachable, http.StatusBadGateway},
		{&UpstreamStatusError{StatusCode: 500}, http.StatusBadGateway},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusFromError(tc.err), "err=%v", tc.err)
	}
}

func TestUpstreamStatusError(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &UpstreamStatusError{StatusCode: 503})

	assert.ErrorIs(t, err, ErrUpstream)
	var statusErr *UpstreamStatusError
	if assert.ErrorAs(t, err, &statusErr) {
		assert.Equal(t, 503, statusErr.StatusCode)
	}
	assert.Contains(t, err.Error(), "503")
}

func TestRespondWithDomainError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithDomainError(w, errors.New("dial tcp 10.0.0.1:6379: refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRespondWithDomainError_WrappedSentinelKeepsStatus(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithDomainError(w, fmt.Errorf("%w: traffic must not be negative", ErrMalformedInput))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "traffic must not be negative")
}
