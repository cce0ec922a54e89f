// ABOUTME: MCP server setup for the caltra food tracker.
// ABOUTME: Wraps the MCP server with the tracker service and the acting user.
package mcp

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// Server wraps the MCP server with tracker access.
type Server struct {
	mcpServer *mcp.Server
	tracker   *tracker.Service
	userID    string
	log       *log.Logger
}

// NewServer creates an MCP server acting as userID.
func NewServer(svc *tracker.Service, userID string) (*Server, error) {
	if svc == nil {
		return nil, errors.New("tracker service is required")
	}
	if userID == "" {
		return nil, tracker.ErrNotAuthenticated
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "caltra",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		tracker:   svc,
		userID:    userID,
		log:       logging.MCP(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Debug("serving over stdio", "user", s.userID)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
