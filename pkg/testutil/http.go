// Package testutil provides common test utilities for handler tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewFormRequest creates a POST request with a form-encoded body, the way the
// wizard's step templates submit.
func NewFormRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as a string.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return string(body)
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertRedirect asserts the response is a redirect to the given location.
func AssertRedirect(t *testing.T, rr *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, rr.Code, "expected 302 redirect")
	assert.Equal(t, location, rr.Header().Get("Location"), "unexpected redirect target")
}
