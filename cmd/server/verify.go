package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jamesprial/stash-mcp/internal/stash"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Test the connection to the Stash server",
		Long: `Sends a scene-count probe to the configured Stash server and prints the
result as JSON. Exits non-zero when the connection test fails.`,
		Example: `  stash-mcp verify --endpoint http://stash:9999 --api-key "$STASH_API_KEY"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier := stash.NewVerifier(&http.Client{}, a.logger)
			result := verifier.Verify(cmd.Context(), a.cfg.Stash.Endpoint, a.cfg.Stash.APIKey)

			if err := printJSON(cmd, result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Message)
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
