// Package graphql provides a GraphQL HTTP client for communicating with the
// Stash catalog service.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Client defines the interface for executing GraphQL queries.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// Doer sends a single HTTP request. *http.Client satisfies it; the host
// supplies one configured with its own transport and pooling.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	// ErrEndpointRequired is returned when the endpoint is empty or whitespace.
	ErrEndpointRequired = errors.New("graphql: endpoint is required")
	// ErrInvalidURL is returned when the endpoint does not resolve to an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("graphql: invalid endpoint URL")
	// ErrNoData is wrapped in a DecodeError when a response carries neither
	// errors nor a data object.
	ErrNoData = errors.New("graphql: response has no data")
)

// TransportError wraps a failure to send the request or read the response
// body: DNS, refused connections, TLS, timeouts and cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("graphql: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	// Reason is the reason phrase sent by the server, or the canonical text
	// for StatusCode when the server sent none.
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: unexpected HTTP status %d: %s", e.StatusCode, e.Reason)
}

// ResponseError reports a well-formed response whose errors array is populated.
type ResponseError struct {
	Errors []GraphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// FirstMessage returns the message of the first error, or "" when it has none.
func (e *ResponseError) FirstMessage() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

// DecodeError reports a body that is not a GraphQL envelope, or one missing
// the data the caller asked for.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("graphql: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Response is the standard GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// DecodeResponse parses body as a GraphQL envelope. Any syntax or shape
// problem is returned as a *DecodeError.
func DecodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &resp, nil
}

// Err returns a *ResponseError when the envelope carries at least one error.
func (r *Response) Err() error {
	if len(r.Errors) > 0 {
		return &ResponseError{Errors: r.Errors}
	}
	return nil
}

// HasData reports whether the data member is present and not null.
func (r *Response) HasData() bool {
	d := bytes.TrimSpace(r.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}
