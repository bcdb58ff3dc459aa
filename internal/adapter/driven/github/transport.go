package github

import (
	"net/http"

	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// unauthorizedTransport turns HTTP 401 responses into driven.ErrUnauthorized
// so callers can tell bad credentials apart from other failures, whichever
// API produced them.
type unauthorizedTransport struct {
	base http.RoundTripper
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		return nil, driven.ErrUnauthorized
	}

	return resp, nil
}
