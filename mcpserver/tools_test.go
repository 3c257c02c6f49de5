package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	webtoolkit "github.com/kimasplund/mcp-web-interaction-toolkit"
)

func TestFetchURLRejectsMissingURL(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleFetchURL(context.Background(), callRequest(t, map[string]any{}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "url is required")
}

func TestFetchURLRejectsMalformedArguments(t *testing.T) {
	s := newTestServer(t)

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{"url": 42}`)},
	}
	result, err := s.handleFetchURL(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid arguments")
}

func TestFetchURLRejectsUnsafeTargets(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"http://localhost:8080/admin",
		"http://127.0.0.1/metrics",
		"file:///etc/passwd",
		"ftp://example.com/file",
	} {
		result, err := s.handleFetchURL(context.Background(), callRequest(t, map[string]any{"url": target}))
		require.NoError(t, err)
		assert.True(t, result.IsError, "expected %q to be rejected", target)
	}
}

func TestFetchURLReportsFetchFailure(t *testing.T) {
	s := newTestServer(t)

	// Reserved TEST-NET-1 address; the connection fails without leaving
	// the machine, exercising the error path end to end. The deadline
	// bounds the dial in environments that black-hole the packets.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := s.handleFetchURL(ctx, callRequest(t, map[string]any{
		"url": "http://192.0.2.1:1/",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "fetch failed")
}

func TestCloseSessionRequiresID(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCloseSession(context.Background(), callRequest(t, map[string]any{}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session_id is required")
}

func TestCloseSessionTearsDownSession(t *testing.T) {
	s := newTestServer(t)

	_, err := s.client.Sessions().GetOrCreate("crawl-1")
	require.NoError(t, err)
	require.Equal(t, 1, s.client.Sessions().ActiveSessions())

	result, err := s.handleCloseSession(context.Background(), callRequest(t, map[string]any{
		"session_id": "crawl-1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Closed         string `json:"closed"`
		ActiveSessions int    `json:"active_sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, "crawl-1", resp.Closed)
	assert.Equal(t, 0, resp.ActiveSessions)
}

func TestCloseSessionMissingIDIsNoop(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCloseSession(context.Background(), callRequest(t, map[string]any{
		"session_id": "never-existed",
	}))
	require.NoError(t, err)

	assert.False(t, result.IsError, "closing an unknown session still succeeds")
}

func TestCloseAllSessions(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.client.Sessions().GetOrCreate(id)
		require.NoError(t, err)
	}

	result, err := s.handleCloseAllSessions(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		ClosedSessions int `json:"closed_sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 3, resp.ClosedSessions)
	assert.Equal(t, 0, s.client.Sessions().ActiveSessions())
}

func TestHealthTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleHealth(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, webtoolkit.Version, resp.Health.Version)
	assert.Equal(t, 0, resp.Health.ActiveSessions)
	assert.False(t, resp.Health.SharedClientOpen)
}

func TestClearCacheTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	s := newTestServer(t)

	// Populate the cache through the client directly; the tool-level URL
	// guard refuses loopback targets that httptest binds to.
	_, err := s.client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, 1, s.client.CacheEntries())

	result, err := s.handleClearCache(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		DroppedEntries int `json:"dropped_entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 1, resp.DroppedEntries)
	assert.Equal(t, 0, s.client.CacheEntries())
}
