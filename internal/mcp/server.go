package mcp

import (
	"context"

	"jira-extract/internal/jira"
	"jira-extract/internal/pipeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const (
	serverName    = "jira-extract"
	serverVersion = "0.1.0"
)

// Server exposes the fetch pipeline as MCP tools.
type Server struct {
	jira    jira.Client
	fetcher *pipeline.Fetcher
	srv     *mcp.Server
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(client jira.Client) *Server {
	impl := &mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}
	s := &Server{
		jira:    client,
		fetcher: pipeline.New(client),
		srv:     mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("project", s.jira.ProjectKey()).Msg("Starting MCP server on stdio")
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}
