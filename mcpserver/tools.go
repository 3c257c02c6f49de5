package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	webtoolkit "github.com/kimasplund/mcp-web-interaction-toolkit"
)

// registerTools adds every toolkit tool to the MCP server.
func (s *Server) registerTools() {
	s.addFetchURLTool()
	s.addCloseSessionTool()
	s.addCloseAllSessionsTool()
	s.addHealthTool()
	s.addClearCacheTool()
}

// ---------------------------------------------------------------------------
// fetch_url
// ---------------------------------------------------------------------------

func (s *Server) addFetchURLTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "fetch_url",
			Title: "Fetch a Web Page",
			Description: `Fetch a page through the reliability layer: per-domain rate limiting,
circuit breaking, response caching and retry with backoff.

Pass "session_id" to reuse a named cookie-bearing session across related
fetches; session fetches bypass the cache. Set "use_cache" to false to
force a fresh fetch. Results include the page title, outgoing links
(capped) and truncated visible text.`,
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"url"},
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Absolute http(s) URL to fetch.",
					},
					"session_id": map[string]any{
						"type":        "string",
						"description": "Optional named session; the same id reuses the same cookies until close_session.",
					},
					"use_cache": map[string]any{
						"type":        "boolean",
						"description": "Serve from cache when possible (default true).",
						"default":     true,
					},
					"max_content_length": map[string]any{
						"type":        "integer",
						"description": "Maximum characters of visible text to return (default 5000).",
						"default":     5000,
					},
					"max_links": map[string]any{
						"type":        "integer",
						"description": "Maximum number of links to extract (default 50).",
						"default":     50,
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:  true,
				OpenWorldHint: boolPtr(true),
				Title:         "Fetch a Web Page",
			},
		},
		s.handleFetchURL,
	)
}

type fetchURLArgs struct {
	URL              string `json:"url"`
	SessionID        string `json:"session_id"`
	UseCache         *bool  `json:"use_cache"`
	MaxContentLength int    `json:"max_content_length"`
	MaxLinks         int    `json:"max_links"`
}

type fetchURLResponse struct {
	URL         string   `json:"url"`
	StatusCode  int      `json:"status_code"`
	ContentType string   `json:"content_type"`
	Title       string   `json:"title,omitempty"`
	Text        string   `json:"text,omitempty"`
	Links       []string `json:"links,omitempty"`
	FromCache   bool     `json:"from_cache"`
	DurationMS  int64    `json:"duration_ms"`
	SessionID   string   `json:"session_id,omitempty"`
}

func (s *Server) handleFetchURL(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args fetchURLArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'url' (string) plus optional 'session_id', 'use_cache', 'max_content_length', 'max_links'.", err)), nil
	}

	if err := validateTargetURL(args.URL); err != nil {
		return errorResult(err.Error()), nil
	}

	if args.MaxContentLength <= 0 {
		args.MaxContentLength = 5000
	}
	if args.MaxLinks <= 0 {
		args.MaxLinks = 50
	}
	disableCache := args.UseCache != nil && !*args.UseCache

	result, err := s.client.Fetch(ctx, webtoolkit.FetchRequest{
		URL:          args.URL,
		SessionID:    args.SessionID,
		DisableCache: disableCache,
	})
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", args.URL), zap.Error(err))
		return errorResult(fmt.Sprintf("fetch failed: %v", err)), nil
	}

	page := extractPage(result.Body, result.URL, args.MaxLinks, args.MaxContentLength)

	return jsonResult(fetchURLResponse{
		URL:         result.URL,
		StatusCode:  result.StatusCode,
		ContentType: result.Header.Get("Content-Type"),
		Title:       page.Title,
		Text:        page.Text,
		Links:       page.Links,
		FromCache:   result.FromCache,
		DurationMS:  result.Duration.Milliseconds(),
		SessionID:   args.SessionID,
	})
}

// ---------------------------------------------------------------------------
// close_session / close_all_sessions
// ---------------------------------------------------------------------------

func (s *Server) addCloseSessionTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "close_session",
			Title:       "Close a Named Session",
			Description: "Tear down a named session and discard its cookies. Closing a missing session id is a no-op and still reports success.",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"session_id"},
				"properties": map[string]any{
					"session_id": map[string]any{
						"type":        "string",
						"description": "The session id to close.",
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Close a Named Session",
			},
		},
		s.handleCloseSession,
	)
}

type closeSessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCloseSession(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args closeSessionArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'session_id' (string).", err)), nil
	}
	if args.SessionID == "" {
		return errorResult("session_id is required"), nil
	}

	s.client.Sessions().Close(args.SessionID)
	return jsonResult(map[string]any{
		"closed":          args.SessionID,
		"active_sessions": s.client.Sessions().ActiveSessions(),
	})
}

func (s *Server) addCloseAllSessionsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "close_all_sessions",
			Title:       "Close All Named Sessions",
			Description: "Tear down every named session and discard all cookies.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Close All Named Sessions",
			},
		},
		s.handleCloseAllSessions,
	)
}

func (s *Server) handleCloseAllSessions(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	closed := s.client.Sessions().ActiveSessions()
	s.client.Sessions().CloseAll()
	return jsonResult(map[string]any{"closed_sessions": closed})
}

// ---------------------------------------------------------------------------
// get_health
// ---------------------------------------------------------------------------

func (s *Server) addHealthTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "get_health",
			Title:       "Toolkit Health",
			Description: "Report current configuration, whether the shared pooled client is open, cache entry count and active session count. Read-only; no network requests.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Toolkit Health",
			},
		},
		s.handleHealth,
	)
}

type healthResponse struct {
	Status string                  `json:"status"`
	Health webtoolkit.HealthStatus `json:"health"`
}

func (s *Server) handleHealth(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(healthResponse{
		Status: "ok",
		Health: s.client.Health(),
	})
}

// ---------------------------------------------------------------------------
// clear_cache
// ---------------------------------------------------------------------------

func (s *Server) addClearCacheTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "clear_cache",
			Title:       "Clear Response Cache",
			Description: "Drop every cached response so subsequent fetches hit the network.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Clear Response Cache",
			},
		},
		s.handleClearCache,
	)
}

func (s *Server) handleClearCache(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dropped := s.client.CacheEntries()
	s.client.ClearCache()
	return jsonResult(map[string]any{"dropped_entries": dropped})
}

func boolPtr(b bool) *bool { return &b }
