package stash

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamesprial/stash-mcp/internal/config"
	"github.com/jamesprial/stash-mcp/internal/graphql"
)

// recordedRequest is what fakeStash saw for one call.
type recordedRequest struct {
	Path      string
	Header    http.Header
	Query     string
	Variables map[string]any
}

// fakeStash is a scripted catalog server.
type fakeStash struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

// newFakeStash starts a server that answers every request using respond.
func newFakeStash(t *testing.T, respond http.HandlerFunc) *fakeStash {
	t.Helper()
	fs := &fakeStash{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.Unmarshal(body, &payload)

		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			Path:      r.URL.Path,
			Header:    r.Header.Clone(),
			Query:     payload.Query,
			Variables: payload.Variables,
		})
		fs.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		respond(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

// respondJSON answers with status and a literal body.
func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (fs *fakeStash) Requests() []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]recordedRequest(nil), fs.requests...)
}

// newTestCatalog returns a Client wired to url and a buffer capturing its logs.
func newTestCatalog(t *testing.T, url string) (*Client, *bytes.Buffer) {
	t.Helper()
	gql, err := graphql.NewHTTPClient(config.StashConfig{Endpoint: url, APIKey: "test-key", Timeout: 5})
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewClient(gql, logger), &logs
}

// fixture reads a file from testdata.
func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// envelope wraps payload as data.<op>.
func envelope(t *testing.T, op string, payload []byte) string {
	t.Helper()
	out, err := json.Marshal(map[string]any{"data": map[string]json.RawMessage{op: payload}})
	require.NoError(t, err)
	return string(out)
}

// listEnvelope wraps items as data.<op>.<collection>.
func listEnvelope(t *testing.T, op, collection string, items ...[]byte) string {
	t.Helper()
	raws := make([]json.RawMessage, len(items))
	for i, item := range items {
		raws[i] = item
	}
	out, err := json.Marshal(map[string]any{
		"data": map[string]any{op: map[string]any{collection: raws, "count": len(raws)}},
	})
	require.NoError(t, err)
	return string(out)
}
