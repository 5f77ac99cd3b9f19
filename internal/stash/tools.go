package stash

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/stash-mcp/internal/audit"
	"github.com/jamesprial/stash-mcp/internal/config"
	"github.com/jamesprial/stash-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameTestConnection = "stash_test_connection"

// Tools returns the MCP tool registrations for the catalog: a connection
// test plus a get and a search tool per entity kind. cfg supplies the
// default endpoint and key, and the base for web links in results.
func Tools(catalog Catalog, verifier ConnectionVerifier, cfg config.StashConfig, logger *audit.Logger) []tools.Registration {
	return append(ConnectionTools(verifier, cfg, logger), CatalogTools(catalog, cfg.Endpoint, logger)...)
}

// ConnectionTools returns only the stash_test_connection registration. It
// needs no working endpoint, so it is served even when the configured one
// is unusable.
func ConnectionTools(verifier ConnectionVerifier, cfg config.StashConfig, logger *audit.Logger) []tools.Registration {
	return []tools.Registration{testConnectionTool(verifier, cfg, logger)}
}

// CatalogTools returns the get and search registrations for every entity
// kind. endpoint is the base for web links in results.
func CatalogTools(catalog Catalog, endpoint string, logger *audit.Logger) []tools.Registration {
	return []tools.Registration{
		getTool(EntityScene, catalog.SceneByID, func(s Scene) string { return s.ID }, endpoint, logger),
		searchTool(EntityScene, catalog.SearchScenes, func(s Scene) string { return s.ID }, endpoint, logger),
		getTool(EntityPerformer, catalog.PerformerByID, func(p Performer) string { return p.ID }, endpoint, logger),
		searchTool(EntityPerformer, catalog.SearchPerformers, func(p Performer) string { return p.ID }, endpoint, logger),
		getTool(EntityStudio, catalog.StudioByID, func(s Studio) string { return s.ID }, endpoint, logger),
		searchTool(EntityStudio, catalog.SearchStudios, func(s Studio) string { return s.ID }, endpoint, logger),
	}
}

// testConnectionTool constructs the stash_test_connection Registration.
func testConnectionTool(verifier ConnectionVerifier, cfg config.StashConfig, logger *audit.Logger) tools.Registration {
	tool := mcp.NewTool(toolNameTestConnection,
		mcp.WithDescription("Check that the Stash server is reachable and the API key is accepted. Reports the scene count on success."),
		mcp.WithString("endpoint",
			mcp.Description("Stash server URL. Defaults to the configured endpoint."),
		),
		mcp.WithString("api_key",
			mcp.Description("Stash API key. Defaults to the configured key."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		endpoint := req.GetString("endpoint", cfg.Endpoint)
		apiKey := req.GetString("api_key", cfg.APIKey)
		params := map[string]any{"endpoint": endpoint}

		result := verifier.Verify(ctx, endpoint, apiKey)

		outcome := "ok"
		if !result.Success {
			outcome = "error: " + result.Message
		}
		tools.LogAudit(logger, toolNameTestConnection, params, outcome, start)
		return tools.JSONResult(result), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// linked pairs a catalog record with its web page.
type linked[E any] struct {
	URL  string `json:"url,omitempty"`
	Item E      `json:"item"`
}

type searchResult[E any] struct {
	Count int         `json:"count"`
	Items []linked[E] `json:"items"`
}

// getTool constructs the stash_<kind>_get Registration.
func getTool[E any](kind EntityKind, fetch func(context.Context, string) (E, error), idOf func(E) string, endpoint string, logger *audit.Logger) tools.Registration {
	toolName := fmt.Sprintf("stash_%s_get", kind)

	tool := mcp.NewTool(toolName,
		mcp.WithDescription(fmt.Sprintf("Fetch a single %s from Stash by id, including nested metadata.", kind)),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("The %s id.", kind)),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		params := map[string]any{"id": id}

		item, err := fetch(ctx, id)
		if err != nil {
			tools.LogAudit(logger, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(logger, toolName, params, "ok", start)
		return tools.JSONResult(linked[E]{URL: WebURL(endpoint, kind, idOf(item)), Item: item}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// searchTool constructs the stash_<kind>_search Registration.
func searchTool[E any](kind EntityKind, find func(context.Context, Filter) ([]E, error), idOf func(E) string, endpoint string, logger *audit.Logger) tools.Registration {
	toolName := fmt.Sprintf("stash_%s_search", kind)

	tool := mcp.NewTool(toolName,
		mcp.WithDescription(fmt.Sprintf("Search Stash %ss by free text, ids or a structured filter.", kind)),
		mcp.WithString("query",
			mcp.Description("Free text to match."),
		),
		mcp.WithString("ids",
			mcp.Description("Comma-separated list of ids to restrict the search to."),
		),
		mcp.WithString("sort",
			mcp.Description("Sort key, for example title, name, date or created_at."),
		),
		mcp.WithString("direction",
			mcp.Description("Sort direction."),
			mcp.Enum("ASC", "DESC"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Maximum number of results. Defaults to the server's page size."),
		),
		mcp.WithString("criteria",
			mcp.Description(fmt.Sprintf("Optional JSON object passed as the %s_filter argument.", kind)),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		f := Filter{
			Query:     req.GetString("query", ""),
			IDs:       splitIDs(req.GetString("ids", "")),
			Sort:      req.GetString("sort", ""),
			Direction: req.GetString("direction", ""),
			PerPage:   req.GetInt("per_page", 0),
		}
		criteria := req.GetString("criteria", "")
		params := map[string]any{
			"query":     f.Query,
			"ids":       f.IDs,
			"sort":      f.Sort,
			"direction": f.Direction,
			"per_page":  f.PerPage,
			"criteria":  criteria,
		}

		if criteria != "" {
			if err := json.Unmarshal([]byte(criteria), &f.Criteria); err != nil {
				errMsg := fmt.Sprintf("parse criteria JSON: %v", err)
				tools.LogAudit(logger, toolName, params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		items, err := find(ctx, f)
		if err != nil {
			tools.LogAudit(logger, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		out := searchResult[E]{Count: len(items), Items: make([]linked[E], 0, len(items))}
		for _, item := range items {
			out.Items = append(out.Items, linked[E]{URL: WebURL(endpoint, kind, idOf(item)), Item: item})
		}

		tools.LogAudit(logger, toolName, params, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// splitIDs splits a comma-separated list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
