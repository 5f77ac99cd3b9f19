package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesprial/stash-mcp/internal/stash"
)

// record is one catalog entry as printed by get and search.
type record struct {
	URL  string `json:"url,omitempty"`
	Item any    `json:"item"`
}

func kindArg(arg string) (stash.EntityKind, error) {
	kind, ok := stash.ParseEntityKind(arg)
	if !ok {
		return "", fmt.Errorf("unknown kind %q: want scene, performer or studio", arg)
	}
	return kind, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <scene|performer|studio> <id>",
		Short: "Fetch one scene, performer or studio by id",
		Example: `  stash-mcp get scene 101
  stash-mcp get performer 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			catalog, _, err := a.catalog()
			if err != nil {
				return err
			}

			item, id, err := fetchOne(cmd.Context(), catalog, kind, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, record{URL: stash.WebURL(a.cfg.Stash.Endpoint, kind, id), Item: item})
		},
	}
}

func fetchOne(ctx context.Context, catalog stash.Catalog, kind stash.EntityKind, id string) (any, string, error) {
	switch kind {
	case stash.EntityScene:
		s, err := catalog.SceneByID(ctx, id)
		return s, s.ID, err
	case stash.EntityPerformer:
		p, err := catalog.PerformerByID(ctx, id)
		return p, p.ID, err
	default:
		s, err := catalog.StudioByID(ctx, id)
		return s, s.ID, err
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		ids       []string
		sort      string
		direction string
		perPage   int
		criteria  string
	)

	cmd := &cobra.Command{
		Use:   "search <scene|performer|studio> [text]",
		Short: "Search scenes, performers or studios",
		Example: `  stash-mcp search scene "harbour" --sort date --direction DESC --per-page 10
  stash-mcp search performer --ids 7,9
  stash-mcp search studio --criteria '{"is_missing":"image"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}

			f := stash.Filter{IDs: ids, Sort: sort, Direction: direction, PerPage: perPage}
			if len(args) == 2 {
				f.Query = args[1]
			}
			if criteria != "" {
				if err := json.Unmarshal([]byte(criteria), &f.Criteria); err != nil {
					return fmt.Errorf("parse --criteria: %w", err)
				}
			}

			catalog, _, err := a.catalog()
			if err != nil {
				return err
			}
			records, err := searchAll(cmd.Context(), catalog, kind, f, a.cfg.Stash.Endpoint)
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Restrict the search to these ids (comma-separated)")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort key, for example title, name or date")
	cmd.Flags().StringVar(&direction, "direction", "", "Sort direction: ASC or DESC")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Maximum number of results")
	cmd.Flags().StringVar(&criteria, "criteria", "", "JSON object passed as the <kind>_filter argument")

	return cmd
}

func searchAll(ctx context.Context, catalog stash.Catalog, kind stash.EntityKind, f stash.Filter, endpoint string) ([]record, error) {
	switch kind {
	case stash.EntityScene:
		items, err := catalog.SearchScenes(ctx, f)
		return toRecords(items, err, kind, endpoint, func(s stash.Scene) string { return s.ID })
	case stash.EntityPerformer:
		items, err := catalog.SearchPerformers(ctx, f)
		return toRecords(items, err, kind, endpoint, func(p stash.Performer) string { return p.ID })
	default:
		items, err := catalog.SearchStudios(ctx, f)
		return toRecords(items, err, kind, endpoint, func(s stash.Studio) string { return s.ID })
	}
}

func toRecords[E any](items []E, err error, kind stash.EntityKind, endpoint string, idOf func(E) string) ([]record, error) {
	if err != nil {
		return nil, err
	}
	out := make([]record, 0, len(items))
	for _, item := range items {
		out = append(out, record{URL: stash.WebURL(endpoint, kind, idOf(item)), Item: item})
	}
	return out, nil
}
