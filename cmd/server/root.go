package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jamesprial/stash-mcp/internal/config"
	"github.com/jamesprial/stash-mcp/internal/graphql"
	"github.com/jamesprial/stash-mcp/internal/logging"
	"github.com/jamesprial/stash-mcp/internal/stash"
)

const defaultConfigPath = "/config/config.yaml"

// app carries the state every subcommand shares once the root has loaded
// configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// catalog builds a catalog client from the loaded configuration.
func (a *app) catalog() (*stash.Client, *graphql.HTTPClient, error) {
	gql, err := graphql.NewHTTPClient(a.cfg.Stash)
	if err != nil {
		return nil, nil, fmt.Errorf("stash endpoint %q: %w", a.cfg.Stash.Endpoint, err)
	}
	return stash.NewClient(gql, a.logger), gql, nil
}

func newRootCmd() *cobra.Command {
	var (
		a          = &app{}
		configPath string
		endpoint   string
		apiKey     string
	)

	cmd := &cobra.Command{
		Use:   "stash-mcp",
		Short: "MCP server and CLI for a Stash media catalog",
		Long: `stash-mcp talks to a Stash server over GraphQL.

It serves an MCP endpoint exposing scene, performer and studio lookups,
plus the plugin's connection-test route, and offers the same operations
from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg := loadConfig(configPath)
			config.ApplyEnvOverrides(cfg)
			if cmd.Flags().Changed("endpoint") {
				cfg.Stash.Endpoint = endpoint
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Stash.APIKey = apiKey
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			a.cfg = cfg
			a.logger = logging.Setup(cmd.ErrOrStderr(), cfg.Logging)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file (default $STASH_MCP_CONFIG_PATH or "+defaultConfigPath+")")
	cmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Stash server URL, overriding config and $STASH_ENDPOINT")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Stash API key, overriding config and $STASH_API_KEY")

	cmd.AddCommand(
		newServeCmd(a),
		newVerifyCmd(a),
		newGetCmd(a),
		newSearchCmd(a),
	)

	return cmd
}

// loadConfig reads the config file from path, $STASH_MCP_CONFIG_PATH or the
// default location, in that order. If the file cannot be read, DefaultConfig
// is returned.
func loadConfig(path string) *config.Config {
	if path == "" {
		path = os.Getenv("STASH_MCP_CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		slog.Debug("using default config", "path", path, "error", err)
		return config.DefaultConfig()
	}

	slog.Debug("loaded config", "path", path)
	return cfg
}
