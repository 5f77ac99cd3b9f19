//go:build emby

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jamesprial/stash-mcp/internal/stash"
)

// Variant names the compiled route binding.
const Variant = "service"

// ServeHTTP accepts GET with endpoint and apiKey query parameters, matched
// case-insensitively. Every outcome, including a blank endpoint, is a 200.
// The probe runs detached from the request context and is bounded only by
// the verifier's own timeout.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	q := r.URL.Query()
	endpoint := queryValue(q, "endpoint")
	if strings.TrimSpace(endpoint) == "" {
		h.writeResult(w, http.StatusOK, stash.TestConnectionResult{Message: msgEndpointRequired})
		return
	}

	result := h.verifier.Verify(context.WithoutCancel(r.Context()), endpoint, queryValue(q, "apiKey"))
	h.logOutcome(r, endpoint, result)
	h.writeResult(w, http.StatusOK, result)
}

// queryValue returns the first value whose key matches name ignoring case.
func queryValue(q url.Values, name string) string {
	if v := q.Get(name); v != "" {
		return v
	}
	for k, vs := range q {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}
