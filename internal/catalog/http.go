package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artpar/arttools/internal/core"
)

// maxBody caps the catalog response size.
const maxBody = 16 << 20

// HTTPSource fetches the catalog as a JSON array from a URL.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	headers    http.Header
}

// HTTPOption is a function that configures the HTTPSource.
type HTTPOption func(*HTTPSource)

// NewHTTPSource creates a new HTTP catalog source with the given options.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(http.Header),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient.Transport = transport
	}
}

// WithHeader adds a request header, e.g. an API key.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPSource) {
		s.headers.Add(key, value)
	}
}

// URL returns the catalog endpoint.
func (s *HTTPSource) URL() string {
	return s.url
}

// Fetch requests the catalog and decodes the response.
func (s *HTTPSource) Fetch(ctx context.Context) ([]core.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range s.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch catalog: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var items []core.Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return normalize(items), nil
}
