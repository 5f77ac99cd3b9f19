package tools_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/stash-mcp/internal/audit"
	"github.com/jamesprial/stash-mcp/internal/tools"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Content[0] is %T", result.Content[0])
	return tc.Text
}

// ---------------------------------------------------------------------------
// JSONResult / ErrorResult
// ---------------------------------------------------------------------------

func Test_JSONResult_Cases(t *testing.T) {
	type sceneSummary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Count int    `json:"count,omitempty"`
	}

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "struct is indented", input: sceneSummary{ID: "101", Title: "Harbour Lights"}, want: "{\n  \"id\": \"101\",\n  \"title\": \"Harbour Lights\"\n}"},
		{name: "nil is null", input: nil, want: "null"},
		{name: "empty map", input: map[string]any{}, want: "{}"},
		{name: "empty slice", input: []string{}, want: "[]"},
		{name: "string", input: "Connected!", want: `"Connected!"`},
		{name: "bool", input: false, want: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultText(t, tools.JSONResult(tt.input)))
		})
	}
}

func Test_JSONResult_UnmarshalableValue(t *testing.T) {
	text := resultText(t, tools.JSONResult(make(chan int)))
	assert.Contains(t, text, "error marshaling result:")
}

func Test_ErrorResult_Cases(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{msg: "stash: findScene: No scene found with id 5.", want: "error: stash: findScene: No scene found with id 5."},
		{msg: "", want: "error: "},
		{msg: `HTTP 401: Unauthorized`, want: `error: HTTP 401: Unauthorized`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, resultText(t, tools.ErrorResult(tt.msg)))
		})
	}
}

// ---------------------------------------------------------------------------
// LogAudit
// ---------------------------------------------------------------------------

func Test_LogAudit_NilLogger_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		tools.LogAudit(nil, "stash_scene_get", map[string]any{"id": "1"}, "ok", time.Now())
	})
}

func Test_LogAudit_WritesEntry(t *testing.T) {
	var buf bytes.Buffer
	start := time.Now().Add(-25 * time.Millisecond)

	tools.LogAudit(audit.NewLogger(&buf), "stash_performer_search", map[string]any{"query": "ada"}, "ok", start)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stash_performer_search", entry["tool"])
	assert.Equal(t, "ok", entry["result"])
	assert.Equal(t, map[string]any{"query": "ada"}, entry["params"])
	assert.NotEmpty(t, entry["id"])

	ts, err := time.Parse(time.RFC3339Nano, entry["timestamp"].(string))
	require.NoError(t, err)
	assert.True(t, ts.Equal(start), "timestamp %v, want %v", ts, start)
	assert.Greater(t, entry["duration_ns"], float64(0))
}

func Test_LogAudit_OneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewLogger(&buf)

	for _, result := range []string{"ok", "error: HTTP 500: Internal Server Error"} {
		tools.LogAudit(logger, "stash_test_connection", nil, result, time.Now())
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[1]), "HTTP 500")
}

// ---------------------------------------------------------------------------
// Registration helpers
// ---------------------------------------------------------------------------

func Test_Names_PreservesOrder(t *testing.T) {
	noop := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) { return nil, nil }
	regs := []tools.Registration{
		{Tool: mcp.NewTool("stash_scene_get"), Handler: noop},
		{Tool: mcp.NewTool("stash_scene_search"), Handler: noop},
		{Tool: mcp.NewTool("stash_graphql_query"), Handler: noop},
	}

	assert.Equal(t, []string{"stash_scene_get", "stash_scene_search", "stash_graphql_query"}, tools.Names(regs))
	assert.Empty(t, tools.Names(nil))
}

func Benchmark_JSONResult(b *testing.B) {
	v := map[string]any{"id": "101", "title": "Harbour Lights", "tags": []string{"outdoor", "night"}}
	for b.Loop() {
		_ = tools.JSONResult(v)
	}
}
