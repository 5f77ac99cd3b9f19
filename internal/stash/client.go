package stash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jamesprial/stash-mcp/internal/graphql"
	"github.com/jamesprial/stash-mcp/internal/logging"
)

// Catalog is the read API over scenes, performers and studios.
type Catalog interface {
	SceneByID(ctx context.Context, id string) (Scene, error)
	SearchScenes(ctx context.Context, f Filter) ([]Scene, error)
	PerformerByID(ctx context.Context, id string) (Performer, error)
	SearchPerformers(ctx context.Context, f Filter) ([]Performer, error)
	StudioByID(ctx context.Context, id string) (Studio, error)
	SearchStudios(ctx context.Context, f Filter) ([]Studio, error)
}

// Client implements Catalog on top of a GraphQL transport. It holds no
// per-call state and is safe for concurrent use. Requests are bounded only
// by ctx and the transport's own timeout.
type Client struct {
	gql    graphql.Client
	logger *slog.Logger
}

var _ Catalog = (*Client)(nil)

// NewClient returns a Client sending queries through gql. A nil logger uses
// slog.Default().
func NewClient(gql graphql.Client, logger *slog.Logger) *Client {
	return &Client{gql: gql, logger: logging.OrDefault(logger)}
}

func (c *Client) SceneByID(ctx context.Context, id string) (Scene, error) {
	return fetchByID(ctx, c, EntityScene, id, wireScene.scene)
}

func (c *Client) SearchScenes(ctx context.Context, f Filter) ([]Scene, error) {
	return search(ctx, c, EntityScene, f, wireScene.scene)
}

func (c *Client) PerformerByID(ctx context.Context, id string) (Performer, error) {
	return fetchByID(ctx, c, EntityPerformer, id, wirePerformer.performer)
}

func (c *Client) SearchPerformers(ctx context.Context, f Filter) ([]Performer, error) {
	return search(ctx, c, EntityPerformer, f, wirePerformer.performer)
}

func (c *Client) StudioByID(ctx context.Context, id string) (Studio, error) {
	return fetchByID(ctx, c, EntityStudio, id, wireStudio.studio)
}

func (c *Client) SearchStudios(ctx context.Context, f Filter) ([]Studio, error) {
	return search(ctx, c, EntityStudio, f, wireStudio.studio)
}

func fetchByID[W, E any](ctx context.Context, c *Client, kind EntityKind, id string, convert func(W, string) (E, error)) (E, error) {
	var zero E
	tmpl := templates[queryKey{kind, modeByID}]

	id = strings.TrimSpace(id)
	if id == "" {
		return zero, &Error{Kind: KindInput, Op: tmpl.op, Message: "An id is required."}
	}

	data, err := c.execute(ctx, tmpl, map[string]any{"id": id})
	if err != nil {
		return zero, err
	}

	raw, err := lookupResult(tmpl, data)
	if errors.Is(err, errNullResult) {
		return zero, c.fail(ctx, &Error{
			Kind:    KindNotFound,
			Op:      tmpl.op,
			Message: fmt.Sprintf("No %s found with id %s.", kind, id),
			Err:     err,
		})
	}
	if err != nil {
		return zero, c.fail(ctx, decodeError(tmpl.op, "%w", err))
	}

	e, err := decodeOne(raw, tmpl.op, convert)
	if err != nil {
		return zero, c.fail(ctx, decodeError(tmpl.op, "%w", err))
	}
	return e, nil
}

func search[W, E any](ctx context.Context, c *Client, kind EntityKind, f Filter, convert func(W, string) (E, error)) ([]E, error) {
	tmpl := templates[queryKey{kind, modeSearch}]

	data, err := c.execute(ctx, tmpl, f.variables(kind))
	if err != nil {
		return nil, err
	}

	raw, err := lookupCollection(tmpl, data)
	if err != nil {
		return nil, c.fail(ctx, decodeError(tmpl.op, "%w", err))
	}

	items, err := decodeList(raw, tmpl.op+"."+tmpl.collection, convert)
	if err != nil {
		return nil, c.fail(ctx, decodeError(tmpl.op, "%w", err))
	}
	return items, nil
}

// execute runs tmpl and returns the data member, classifying any failure.
func (c *Client) execute(ctx context.Context, tmpl queryTemplate, vars map[string]any) ([]byte, error) {
	start := time.Now()
	data, err := c.gql.Execute(ctx, tmpl.document, vars)
	if err != nil {
		return nil, c.fail(ctx, classify(ctx, tmpl.op, err))
	}
	c.logger.DebugContext(ctx, "catalog query completed",
		"op", tmpl.op,
		"duration", time.Since(start),
	)
	return data, nil
}

// fail logs e and returns it. Decode failures are unexpected and logged as
// errors; everything else is a normal outcome of talking to a remote server.
func (c *Client) fail(ctx context.Context, e *Error) *Error {
	attrs := []any{"op", e.Op, "kind", e.Kind.String()}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	if e.Kind == KindDecode {
		c.logger.ErrorContext(ctx, "catalog response could not be decoded", attrs...)
	} else {
		c.logger.DebugContext(ctx, "catalog query failed", attrs...)
	}
	return e
}
