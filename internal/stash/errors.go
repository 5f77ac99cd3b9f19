package stash

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jamesprial/stash-mcp/internal/graphql"
)

// Kind classifies a failure talking to the catalog service.
type Kind int

const (
	// KindUnknown is the zero Kind, reported for nil or foreign errors.
	KindUnknown Kind = iota
	// KindInput is a missing or blank required parameter.
	KindInput
	// KindURLFormat is an endpoint that is not an absolute http(s) URL.
	KindURLFormat
	// KindTransport covers DNS, refused connections and TLS failures.
	KindTransport
	// KindTimeout covers deadline expiry and caller cancellation.
	KindTimeout
	// KindHTTPStatus is a non-2xx response.
	KindHTTPStatus
	// KindGraphQL is a response carrying a non-empty errors array.
	KindGraphQL
	// KindDecode is a response body that is not JSON or is missing
	// expected fields. It is the only kind logged at error level.
	KindDecode
	// KindNotFound is a by-id lookup whose result is null.
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindInput:      "input",
	KindURLFormat:  "url_format",
	KindTransport:  "transport",
	KindTimeout:    "timeout",
	KindHTTPStatus: "http_status",
	KindGraphQL:    "graphql",
	KindDecode:     "decode",
	KindNotFound:   "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// User-facing messages.
const (
	msgEndpointRequired = "Endpoint is required."
	msgInvalidURL       = "Invalid endpoint URL format."
	msgParseFailed      = "Failed to parse response from server."
	msgUnexpectedShape  = "Received a response, but it was not in the expected format."
	msgUnknownGraphQL   = "Unknown GraphQL error"
	msgTimedOut         = "Request timed out or was cancelled."
)

// Error is returned by every Client operation. Message is safe to show to a
// user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "stash: " + e.Message
	}
	return fmt.Sprintf("stash: %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a by-id lookup that matched nothing.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// classify converts an error from the graphql transport into an *Error.
// ctx is the context the request ran under; once it is done every failure
// counts as a timeout.
func classify(ctx context.Context, op string, err error) *Error {
	var (
		se *Error
		st *graphql.StatusError
		re *graphql.ResponseError
		de *graphql.DecodeError
		te *graphql.TransportError
	)

	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, graphql.ErrEndpointRequired):
		return &Error{Kind: KindInput, Op: op, Message: msgEndpointRequired, Err: err}
	case errors.Is(err, graphql.ErrInvalidURL):
		return &Error{Kind: KindURLFormat, Op: op, Message: msgInvalidURL, Err: err}
	case isTimeout(ctx, err):
		return &Error{Kind: KindTimeout, Op: op, Message: msgTimedOut, Err: err}
	case errors.As(err, &st):
		return &Error{Kind: KindHTTPStatus, Op: op, Message: fmt.Sprintf("HTTP %d: %s", st.StatusCode, st.Reason), Err: err}
	case errors.As(err, &re):
		return &Error{Kind: KindGraphQL, Op: op, Message: graphQLMessage(re.FirstMessage()), Err: err}
	case errors.Is(err, graphql.ErrNoData):
		return &Error{Kind: KindDecode, Op: op, Message: msgUnexpectedShape, Err: err}
	case errors.As(err, &de):
		return &Error{Kind: KindDecode, Op: op, Message: msgParseFailed, Err: err}
	case errors.As(err, &te):
		return &Error{Kind: KindTransport, Op: op, Message: "Connection failed: " + te.Err.Error(), Err: err}
	default:
		return &Error{Kind: KindTransport, Op: op, Message: "Connection failed: " + err.Error(), Err: err}
	}
}

// isTimeout reports whether err stems from cancellation or a deadline.
func isTimeout(ctx context.Context, err error) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func graphQLMessage(first string) string {
	if first == "" {
		first = msgUnknownGraphQL
	}
	return "GraphQL error: " + first
}

// decodeError reports a response that parsed but lacked expected fields.
func decodeError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindDecode, Op: op, Message: msgUnexpectedShape, Err: fmt.Errorf(format, args...)}
}
