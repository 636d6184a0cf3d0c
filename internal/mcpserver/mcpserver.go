package mcpserver

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/chainlint/pkg/config"
)

// Server wraps the MCP server and registers the chainlint tools.
type Server struct {
	server  *mcp.Server
	version string
	config  *config.Config
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration tool runs start from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger handed to each analysis run. Stdout carries
// the protocol, so it must not write there.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server with all chainlint tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "chainlint",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server:  server,
		version: version,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}

	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the analysis tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_middleware",
		Description: describeAnalyzeMiddleware(),
	}, s.handleAnalyzeMiddleware)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "middleware_summary",
		Description: describeMiddlewareSummary(),
	}, s.handleMiddlewareSummary)
}
