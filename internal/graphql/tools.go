// Package graphql provides a GraphQL HTTP client and MCP tool registration
// for the Stash GraphQL API escape hatch.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/stash-mcp/internal/audit"
	"github.com/jamesprial/stash-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameGraphQLQuery = "stash_graphql_query"

// GraphQLTools returns the tool registrations for the GraphQL escape hatch.
// It exposes a single read-only "stash_graphql_query" tool for queries the
// typed catalog tools do not cover.
func GraphQLTools(client Client, logger *audit.Logger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, logger),
	}
}

// toolGraphQLQuery constructs the stash_graphql_query Registration.
func toolGraphQLQuery(client Client, logger *audit.Logger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQLQuery,
		mcp.WithDescription("Execute a read-only GraphQL query against the Stash API. Mutations and subscriptions are rejected."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query document to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the query."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")

		params := map[string]any{
			"query":     query,
			"variables": variablesStr,
		}

		if err := CheckReadOnly(query); err != nil {
			tools.LogAudit(logger, toolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				errMsg := fmt.Sprintf("parse variables JSON: %v", err)
				tools.LogAudit(logger, toolNameGraphQLQuery, params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		data, err := client.Execute(ctx, query, parsedVars)
		if err != nil {
			tools.LogAudit(logger, toolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		// Round-trip through any so tools.JSONResult can pretty-print it
		// with consistent indentation.
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(logger, toolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(logger, toolNameGraphQLQuery, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
