// Package graphql provides a GraphQL HTTP client for communicating with the
// Stash catalog service.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/stash-mcp/internal/config"
)

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 32 << 20

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP.
type HTTPClient struct {
	doer       Doer
	graphqlURL string
	apiKey     string
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithDoer replaces the HTTP client used to send requests. The doer's own
// timeout, if any, still applies.
func WithDoer(d Doer) Option {
	return func(c *HTTPClient) {
		if d != nil {
			c.doer = d
		}
	}
}

// NewHTTPClient constructs an HTTPClient from the provided StashConfig.
// It returns ErrEndpointRequired or ErrInvalidURL when cfg.Endpoint cannot be
// resolved. A positive cfg.Timeout becomes the client timeout; otherwise
// requests are bounded only by the caller's context. An empty API key is
// valid: the ApiKey header is then omitted.
func NewHTTPClient(cfg config.StashConfig, opts ...Option) (*HTTPClient, error) {
	graphqlURL, err := ResolveURL(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	c := &HTTPClient{
		doer:       &http.Client{Timeout: timeout},
		graphqlURL: graphqlURL,
		apiKey:     cfg.APIKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the resolved GraphQL endpoint.
func (c *HTTPClient) URL() string { return c.graphqlURL }

// ResolveURL parses endpoint and returns its GraphQL URL: the path with
// trailing slashes removed and /graphql appended unless already present.
// Query and fragment are dropped. The endpoint must be an absolute http or
// https URL.
func ResolveURL(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", ErrEndpointRequired
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, endpoint, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w %q", ErrInvalidURL, endpoint)
	}
	return normalizeURL(u).String(), nil
}

// normalizeURL returns a copy of u pointing at its GraphQL path.
func normalizeURL(u *url.URL) *url.URL {
	out := *u
	out.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/graphql") + "/graphql"
	out.RawPath = ""
	if u.RawPath != "" {
		out.RawPath = strings.TrimSuffix(strings.TrimRight(u.RawPath, "/"), "/graphql") + "/graphql"
	}
	out.RawQuery = ""
	out.ForceQuery = false
	out.Fragment = ""
	out.RawFragment = ""
	return &out
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Send posts query and variables to the endpoint and returns the raw body of
// a 2xx response. It does not interpret the body.
//
// Send returns:
//   - *TransportError if the request cannot be sent or the body cannot be
//     read, including context cancellation and deadline expiry
//   - *StatusError if the server responds with a non-2xx status code
func (c *HTTPClient) Send(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("ApiKey", c.apiKey)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Reason: reasonPhrase(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return body, nil
}

// Execute sends a GraphQL query and returns the raw JSON bytes of the "data"
// member on success. Variables may be nil, in which case the "variables" key
// is omitted from the request body.
//
// In addition to the errors of Send, Execute returns:
//   - *DecodeError if the body is not a GraphQL envelope, or if it carries
//     no data (wrapping ErrNoData)
//   - *ResponseError if the envelope contains one or more errors
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	body, err := c.Send(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	gqlResp, err := DecodeResponse(body)
	if err != nil {
		return nil, err
	}
	if err := gqlResp.Err(); err != nil {
		return nil, err
	}
	if !gqlResp.HasData() {
		return nil, &DecodeError{Err: ErrNoData}
	}

	return []byte(gqlResp.Data), nil
}

// reasonPhrase extracts the reason phrase from resp.Status ("500 Internal
// Server Error"), falling back to the canonical text for the code.
func reasonPhrase(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if reason := strings.TrimPrefix(resp.Status, prefix); reason != resp.Status && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
