// Package api serves the plugin's HTTP routes.
//
// The connection-test route has two bindings selected at build time. The
// default controller binding accepts GET and POST and rejects a blank
// endpoint with 400. Building with the "emby" tag selects the service
// binding instead:
//
//	go build -tags emby ./...
//
// which accepts GET only and answers every outcome with 200.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamesprial/stash-mcp/internal/logging"
	"github.com/jamesprial/stash-mcp/internal/stash"
)

// TestConnectionPath is the route of the connection-test endpoint.
const TestConnectionPath = "/Plugins/Stash/TestConnection"

const msgEndpointRequired = "Endpoint is required."

// Handler answers connection-test requests with a stash.TestConnectionResult.
type Handler struct {
	verifier stash.ConnectionVerifier
	logger   *slog.Logger
}

// NewHandler returns a Handler probing through verifier. A nil logger uses
// slog.Default().
func NewHandler(verifier stash.ConnectionVerifier, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, logger: logging.OrDefault(logger)}
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(TestConnectionPath, h)
}

// writeResult encodes result as the JSON body with the given status.
func (h *Handler) writeResult(w http.ResponseWriter, status int, result stash.TestConnectionResult) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Warn("write test connection response", "error", err)
	}
}

// methodNotAllowed rejects r and advertises the accepted methods.
func (h *Handler) methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	h.writeResult(w, http.StatusMethodNotAllowed, stash.TestConnectionResult{
		Message: "Method not allowed.",
	})
}

// logOutcome records a finished probe without the API key.
func (h *Handler) logOutcome(r *http.Request, endpoint string, result stash.TestConnectionResult) {
	h.logger.InfoContext(r.Context(), "test connection",
		"variant", Variant,
		"endpoint", endpoint,
		"success", result.Success,
		"message", result.Message,
	)
}
