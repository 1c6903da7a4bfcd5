package config

import (
	"fmt"
	"net/http"
)

// headerTransport sets the configured endpoint headers on every outgoing request.
type headerTransport struct {
	header http.Header
	base   http.RoundTripper
}

func newHeaderTransport(headers map[string]string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	header := make(http.Header, len(headers))
	for key, value := range headers {
		header.Set(key, value)
	}

	return &headerTransport{header: header, base: base}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrip must not modify the caller's request.
	req = req.Clone(req.Context())
	for key, values := range t.header {
		req.Header[key] = append([]string(nil), values...)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}

	return resp, nil
}
