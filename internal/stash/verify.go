package stash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jamesprial/stash-mcp/internal/config"
	"github.com/jamesprial/stash-mcp/internal/graphql"
	"github.com/jamesprial/stash-mcp/internal/logging"
)

// ProbeTimeout bounds a single Verify call.
const ProbeTimeout = 10 * time.Second

const msgProbeTimedOut = "Connection timed out after 10 seconds."

// ConnectionVerifier checks that a catalog server is reachable with the
// given credentials.
type ConnectionVerifier interface {
	Verify(ctx context.Context, endpoint, apiKey string) TestConnectionResult
}

// Verifier sends one lightweight probe per call and reports the outcome as
// a TestConnectionResult. It is safe for concurrent use.
type Verifier struct {
	doer    graphql.Doer
	logger  *slog.Logger
	timeout time.Duration
}

var _ ConnectionVerifier = (*Verifier)(nil)

// NewVerifier returns a Verifier sending probes through doer. A nil doer uses
// http.DefaultClient; a nil logger uses slog.Default().
func NewVerifier(doer graphql.Doer, logger *slog.Logger) *Verifier {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Verifier{
		doer:    doer,
		logger:  logging.OrDefault(logger),
		timeout: ProbeTimeout,
	}
}

// Verify probes endpoint with { stats { scene_count } }. It never returns an
// error: every failure is described by the result's Message. The probe is
// bounded by ProbeTimeout on top of any deadline already on ctx, and is
// never retried.
func (v *Verifier) Verify(ctx context.Context, endpoint, apiKey string) TestConnectionResult {
	if strings.TrimSpace(endpoint) == "" {
		return failure(msgEndpointRequired)
	}

	client, err := graphql.NewHTTPClient(
		config.StashConfig{Endpoint: endpoint, APIKey: apiKey},
		graphql.WithDoer(v.doer),
	)
	if err != nil {
		return failure(classify(ctx, "verify", err).Message)
	}

	probeCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := client.Send(probeCtx, probeQuery, nil)
	if err != nil {
		e := classify(probeCtx, "verify", err)
		if e.Kind == KindTimeout {
			e.Message = msgProbeTimedOut
		}
		v.logger.DebugContext(ctx, "connection probe failed",
			"url", client.URL(),
			"kind", e.Kind.String(),
			"error", err,
		)
		return failure(e.Message)
	}

	result := v.interpret(ctx, body)
	v.logger.DebugContext(ctx, "connection probe finished",
		"url", client.URL(),
		"success", result.Success,
	)
	return result
}

// probeEnvelope keeps errors and data raw; odd shapes end in the
// unexpected-format result rather than a parse failure.
type probeEnvelope struct {
	Errors json.RawMessage `json:"errors"`
	Data   json.RawMessage `json:"data"`
}

// interpret classifies a 2xx probe body.
func (v *Verifier) interpret(ctx context.Context, body []byte) TestConnectionResult {
	var env probeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		v.logger.ErrorContext(ctx, "connection probe response is not valid JSON", "error", err)
		return failure(msgParseFailed)
	}

	var errs []json.RawMessage
	if json.Unmarshal(env.Errors, &errs) == nil && len(errs) > 0 {
		var first struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(errs[0], &first)
		return failure(graphQLMessage(first.Message))
	}

	var data struct {
		Stats struct {
			SceneCount json.RawMessage `json:"scene_count"`
		} `json:"stats"`
	}
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &data) != nil {
		return failure(msgUnexpectedShape)
	}
	count, ok := integer(data.Stats.SceneCount)
	if !ok {
		return failure(msgUnexpectedShape)
	}

	return TestConnectionResult{
		Success:    true,
		Message:    fmt.Sprintf("Connected! Stash responded with %d scenes.", count),
		SceneCount: &count,
	}
}

// integer accepts a bare JSON integer literal that fits in an int.
func integer(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	n, err := json.Number(raw).Int64()
	if err != nil || int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

func failure(msg string) TestConnectionResult {
	return TestConnectionResult{Success: false, Message: msg}
}
