package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jamesprial/stash-mcp/internal/api"
	"github.com/jamesprial/stash-mcp/internal/audit"
	"github.com/jamesprial/stash-mcp/internal/auth"
	"github.com/jamesprial/stash-mcp/internal/config"
	"github.com/jamesprial/stash-mcp/internal/graphql"
	"github.com/jamesprial/stash-mcp/internal/stash"
	"github.com/jamesprial/stash-mcp/internal/tools"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server and the connection-test route",
		Long: `Starts an HTTP server exposing:

  /mcp                            MCP streamable HTTP endpoint
  /Plugins/Stash/TestConnection   connection test used by the plugin page
  /healthcheck                    unauthenticated liveness probe

Everything but /healthcheck requires the auth token as a Bearer header or
the api_key query parameter.`,
		Example: `  # Serve on the configured port
  stash-mcp serve

  # Serve against a specific Stash instance
  stash-mcp serve --endpoint http://stash:9999 --port 8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			handler, closeFn := buildHandler(a)
			defer closeFn()

			addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				a.logger.Info("stash-mcp listening", "addr", addr, "variant", api.Variant)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("graceful shutdown failed", "error", err)
					return err
				}
				a.logger.Info("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")

	return cmd
}

// buildHandler wires the MCP server, plugin route and auth into one handler.
// The returned func releases resources such as the audit log file.
func buildHandler(a *app) (http.Handler, func()) {
	cfg := a.cfg
	closeFn := func() {}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		a.logger.Warn("could not generate auth token, running without authentication", "error", err)
	} else if tokenBefore == "" {
		a.logger.Info("generated auth token (set STASH_MCP_AUTH_TOKEN to persist)", "token", token)
	}

	var auditLogger *audit.Logger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			a.logger.Warn("audit logging disabled", "path", cfg.Audit.LogPath, "error", err)
		} else {
			auditLogger = audit.NewLogger(f)
			closeFn = func() { _ = f.Close() }
		}
	}

	verifier := stash.NewVerifier(&http.Client{}, a.logger)

	registrations := stash.ConnectionTools(verifier, cfg.Stash, auditLogger)
	if catalog, gql, err := a.catalog(); err != nil {
		a.logger.Warn("catalog tools disabled", "error", err)
	} else {
		registrations = append(registrations, stash.CatalogTools(catalog, cfg.Stash.Endpoint, auditLogger)...)
		registrations = append(registrations, graphql.GraphQLTools(gql, auditLogger)...)
	}

	mcpServer := server.NewMCPServer(
		"stash-mcp",
		version,
		server.WithToolCapabilities(false),
	)
	tools.RegisterAll(mcpServer, registrations)
	a.logger.Info("registered tools", "tools", tools.Names(registrations))

	protected := http.NewServeMux()
	protected.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	api.NewHandler(verifier, a.logger).Register(protected)

	root := http.NewServeMux()
	root.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			a.logger.Error("unable to write healthcheck", "error", err)
		}
	})
	root.Handle("/", auth.NewAuthMiddleware(cfg.Server.AuthToken, a.logger)(protected))

	return root, closeFn
}
