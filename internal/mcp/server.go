// ABOUTME: MCP server setup for the body-composition pipeline.
// ABOUTME: Wraps the MCP server around a pipeline and its stores.
package mcp

import (
	"context"
	"errors"

	"github.com/harperreed/bodycomp/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with pipeline access.
type Server struct {
	mcpServer *mcp.Server
	pipe      *pipeline.Pipeline
}

// NewServer creates a new MCP server over the given pipeline.
func NewServer(pipe *pipeline.Pipeline) (*Server, error) {
	if pipe == nil || pipe.History() == nil {
		return nil, errors.New("mcp server needs a pipeline with a history store")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bodycomp",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		pipe:      pipe,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
