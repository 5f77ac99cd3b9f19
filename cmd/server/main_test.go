package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/stash-mcp/internal/config"
)

// fakeStash answers GraphQL posts with canned bodies chosen by the first
// matching substring of the query.
type fakeStash struct {
	*httptest.Server

	mu        sync.Mutex
	replies   map[string]string
	status    int
	lastQuery string
	lastVars  map[string]any
}

func newFakeStash(t *testing.T, replies map[string]string) *fakeStash {
	t.Helper()
	f := &fakeStash{replies: replies, status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.lastQuery, f.lastVars = req.Query, req.Variables
		status := f.status
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		for match, body := range f.replies {
			if strings.Contains(req.Query, match) {
				_, _ = io.WriteString(w, body)
				return
			}
		}
		_, _ = io.WriteString(w, `{"data":null}`)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeStash) vars() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVars
}

// runCLI executes the root command with args and returns stdout and the error.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"STASH_MCP_AUTH_TOKEN", "STASH_ENDPOINT", "STASH_API_KEY", "STASH_MCP_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("STASH_MCP_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func Test_Verify_Success(t *testing.T) {
	f := newFakeStash(t, map[string]string{"stats": `{"data":{"stats":{"scene_count":3}}}`})

	out, err := runCLI(t, "verify", "--endpoint", f.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Connected! Stash responded with 3 scenes.")
	assert.Contains(t, out, `"sceneCount": 3`)
}

func Test_Verify_FailureExitsWithError(t *testing.T) {
	f := newFakeStash(t, nil)
	f.status = http.StatusUnauthorized

	out, err := runCLI(t, "verify", "--endpoint", f.URL, "--api-key", "bad")
	require.Error(t, err)
	assert.Equal(t, "HTTP 401: Unauthorized", err.Error())
	assert.Contains(t, out, `"success": false`)
}

func Test_Get_Scene(t *testing.T) {
	f := newFakeStash(t, map[string]string{
		"findScene(": `{"data":{"findScene":{"id":"101","title":"Harbour Lights","rating100":85,"tags":[],"performers":[],"stash_ids":[]}}}`,
	})

	out, err := runCLI(t, "get", "scenes", "101", "--endpoint", f.URL)
	require.NoError(t, err)

	var got struct {
		URL  string         `json:"url"`
		Item map[string]any `json:"item"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, f.URL+"/scenes/101", got.URL)
	assert.Equal(t, "Harbour Lights", got.Item["title"])
	assert.Equal(t, "101", f.vars()["id"])
}

func Test_Get_NotFound(t *testing.T) {
	f := newFakeStash(t, map[string]string{"findStudio(": `{"data":{"findStudio":null}}`})

	_, err := runCLI(t, "get", "studio", "5", "--endpoint", f.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No studio found with id 5.")
}

func Test_Get_UnknownKind(t *testing.T) {
	_, err := runCLI(t, "get", "gallery", "1", "--endpoint", "http://localhost:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "gallery"`)
}

func Test_Get_InvalidEndpoint(t *testing.T) {
	_, err := runCLI(t, "get", "scene", "1", "--endpoint", "ftp://stash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stash endpoint")
}

func Test_Search_Performers(t *testing.T) {
	f := newFakeStash(t, map[string]string{
		"findPerformers(": `{"data":{"findPerformers":{"performers":[{"id":"7","name":"Ada Reyes","stash_ids":[]}]}}}`,
	})

	out, err := runCLI(t, "search", "performer", "ada",
		"--endpoint", f.URL,
		"--ids", "7,9",
		"--sort", "name",
		"--direction", "desc",
		"--per-page", "5",
		"--criteria", `{"gender":{"value":"FEMALE","modifier":"EQUALS"}}`,
	)
	require.NoError(t, err)

	var got []struct {
		URL  string         `json:"url"`
		Item map[string]any `json:"item"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, f.URL+"/performers/7", got[0].URL)

	vars := f.vars()
	assert.Equal(t, []any{"7", "9"}, vars["ids"])
	assert.Equal(t, map[string]any{"q": "ada", "sort": "name", "direction": "DESC", "per_page": float64(5)}, vars["filter"])
	assert.Contains(t, vars, "performer_filter")
}

func Test_Search_BadCriteria(t *testing.T) {
	_, err := runCLI(t, "search", "scene", "--endpoint", "http://localhost:1", "--criteria", "{")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse --criteria")
}

func Test_Search_EmptyIsEmptyArray(t *testing.T) {
	f := newFakeStash(t, map[string]string{"findStudios(": `{"data":{"findStudios":{"studios":null}}}`})

	out, err := runCLI(t, "search", "studios", "--endpoint", f.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func Test_Root_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o600))

	_, err := runCLI(t, "verify", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

// ---------------------------------------------------------------------------
// serve wiring
// ---------------------------------------------------------------------------

func testApp(endpoint string) *app {
	cfg := config.DefaultConfig()
	cfg.Server.AuthToken = "secret"
	cfg.Stash.Endpoint = endpoint
	cfg.Audit.Enabled = false
	return &app{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func Test_BuildHandler_Routes(t *testing.T) {
	f := newFakeStash(t, map[string]string{"stats": `{"data":{"stats":{"scene_count":2}}}`})
	handler, closeFn := buildHandler(testApp(f.URL))
	defer closeFn()

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "healthcheck is open", target: "/healthcheck", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "plugin route needs auth", target: "/Plugins/Stash/TestConnection?endpoint=" + f.URL, wantStatus: http.StatusUnauthorized},
		{name: "plugin route with query token", target: "/Plugins/Stash/TestConnection?api_key=secret&endpoint=" + f.URL, wantStatus: http.StatusOK, wantBody: "Connected! Stash responded with 2 scenes."},
		{name: "plugin route with bearer", target: "/Plugins/Stash/TestConnection?endpoint=" + f.URL, header: "Bearer secret", wantStatus: http.StatusOK, wantBody: `"success":true`},
		{name: "mcp needs auth", target: "/mcp", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func Test_BuildHandler_GeneratesToken(t *testing.T) {
	a := testApp("http://localhost:9999")
	a.cfg.Server.AuthToken = ""
	_, closeFn := buildHandler(a)
	defer closeFn()

	assert.Len(t, a.cfg.Server.AuthToken, 32)
}

func Test_BuildHandler_AuditFile(t *testing.T) {
	a := testApp("http://localhost:9999")
	a.cfg.Audit.Enabled = true
	a.cfg.Audit.LogPath = filepath.Join(t.TempDir(), "audit.log")

	_, closeFn := buildHandler(a)
	closeFn()

	assert.FileExists(t, a.cfg.Audit.LogPath)
}

func Test_BuildHandler_UnusableEndpointStillServes(t *testing.T) {
	handler, closeFn := buildHandler(testApp("not a url"))
	defer closeFn()

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
