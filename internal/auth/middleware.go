// Package auth provides HTTP middleware for shared-token authentication.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamesprial/stash-mcp/internal/logging"
)

// QueryParam is the query parameter accepted in place of an Authorization
// header, for clients such as browser plugin pages that cannot set headers.
const QueryParam = "api_key"

// NewAuthMiddleware returns middleware that requires token on every request.
// An empty token disables authentication.
//
// The token is accepted either as
//
//	Authorization: Bearer <token>
//
// with a case-sensitive prefix and exactly one space, or as the api_key query
// parameter. A request carrying an Authorization header is judged on the
// header alone. Rejected requests get 401 and never reach next.
func NewAuthMiddleware(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logging.OrDefault(logger)
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided, ok := credential(r)
			if !ok || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				logger.DebugContext(r.Context(), "rejected unauthenticated request",
					"method", r.Method,
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="stash-mcp"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// credential extracts the presented token. ok is false when none was given
// or the Authorization header is malformed.
func credential(r *http.Request) (string, bool) {
	if header, present := r.Header["Authorization"]; present {
		const prefix = "Bearer "
		value := ""
		if len(header) > 0 {
			value = header[0]
		}
		if !strings.HasPrefix(value, prefix) {
			return "", false
		}
		provided := value[len(prefix):]
		return provided, provided != ""
	}

	provided := r.URL.Query().Get(QueryParam)
	return provided, provided != ""
}
