// Package mcpserver exposes the web interaction toolkit over the Model
// Context Protocol. It is glue: every tool delegates the hard parts
// (admission, failure isolation, caching, retries, sessions) to the
// webtoolkit client it wraps.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	webtoolkit "github.com/kimasplund/mcp-web-interaction-toolkit"
)

const serverInstructions = `Web interaction toolkit. Use fetch_url to retrieve pages; pass a
session_id to keep cookies across related fetches (the same id reuses the
same underlying session until close_session). Fetches are rate limited per
domain and fail fast while a domain's circuit breaker is open — treat a
CircuitOpen error as "back off and try a different target", not as a
prompt to retry immediately. get_health reports current configuration and
pool state.`

// Server wraps an MCP server around a webtoolkit client.
type Server struct {
	mcp    *mcp.Server
	client *webtoolkit.Client
	logger *zap.Logger
}

// New creates the MCP server with all tools registered. A nil logger
// disables logging.
func New(client *webtoolkit.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		client: client,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "web-interaction-toolkit",
			Title:   "Web Interaction Toolkit",
			Version: webtoolkit.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()

	return s
}

// MCPServer returns the underlying MCP server for direct access (testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// RunStdio serves MCP over stdio until ctx is cancelled. This is the
// primary mode for IDE and desktop-client integrations.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	defer s.client.Close()
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// jsonResult marshals v into a text content result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// errorResult creates an IsError result so the model can see the failure
// and self-correct instead of hitting a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseArgs decodes tool arguments into dst. Empty arguments leave dst at
// its zero value.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// validateTargetURL enforces the fetch boundary: absolute http(s) URLs
// only, and never loopback or unspecified hosts. The toolkit talks to the
// outside web, not to whatever is listening on the operator's machine.
func validateTargetURL(target string) error {
	if target == "" {
		return fmt.Errorf("url is required (e.g. https://example.com)")
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", target)
	}

	hostname := u.Hostname()
	if hostname == "localhost" {
		return fmt.Errorf("loopback host %q is not allowed", hostname)
	}
	if ip := net.ParseIP(hostname); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return fmt.Errorf("loopback host %q is not allowed", hostname)
	}
	return nil
}
