//go:build !emby

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/stash-mcp/internal/stash"
)

func Test_Controller_BlankEndpointIs400(t *testing.T) {
	for _, params := range []url.Values{{}, {"endpoint": {""}}, {"endpoint": {"   "}}} {
		v := &mockVerifier{}
		rec, got := get(t, newMux(v), params)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, got.Success)
		assert.Equal(t, "Endpoint is required.", got.Message)
		assert.Empty(t, v.Calls())
	}
}

func Test_Controller_AcceptsFormPost(t *testing.T) {
	v := &mockVerifier{result: stash.TestConnectionResult{Message: "GraphQL error: bad key"}}
	body := url.Values{"endpoint": {"http://stash:9999"}, "apiKey": {"bad"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, TestConnectionPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, got := serve(t, newMux(v), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GraphQL error: bad key", got.Message)
	calls := v.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bad", calls[0].apiKey)
}

func Test_Controller_PostWithQueryParams(t *testing.T) {
	v := &mockVerifier{}
	req := httptest.NewRequest(http.MethodPost, TestConnectionPath+"?endpoint=http://stash:9999", nil)

	rec, _ := serve(t, newMux(v), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, v.Calls(), 1)
}

func Test_Controller_ProbeUsesRequestContext(t *testing.T) {
	v := &mockVerifier{}
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, TestConnectionPath+"?endpoint=http://stash", nil).WithContext(ctx)

	serve(t, newMux(v), req)
	cancel()

	calls := v.Calls()
	require.Len(t, calls, 1)
	assert.ErrorIs(t, calls[0].ctx.Err(), context.Canceled)
}

func Test_Controller_Variant(t *testing.T) {
	assert.Equal(t, "controller", Variant)
}
