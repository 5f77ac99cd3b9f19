//go:build !emby

package api

import (
	"net/http"
	"strings"

	"github.com/jamesprial/stash-mcp/internal/stash"
)

// Variant names the compiled route binding.
const Variant = "controller"

// ServeHTTP accepts GET or POST with endpoint and apiKey as query or form
// parameters. A blank endpoint is a 400; every verification outcome is a
// 200. The probe is cancelled when the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeResult(w, http.StatusBadRequest, stash.TestConnectionResult{Message: "Invalid request parameters."})
		return
	}

	endpoint := r.Form.Get("endpoint")
	if strings.TrimSpace(endpoint) == "" {
		h.writeResult(w, http.StatusBadRequest, stash.TestConnectionResult{Message: msgEndpointRequired})
		return
	}

	result := h.verifier.Verify(r.Context(), endpoint, r.Form.Get("apiKey"))
	h.logOutcome(r, endpoint, result)
	h.writeResult(w, http.StatusOK, result)
}
