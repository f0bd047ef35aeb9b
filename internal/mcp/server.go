// Package mcp exposes the estimation engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"ccm/internal/apperr"
	"ccm/internal/logging"
	"ccm/internal/simulation"
)

// Server holds the simulation service shared by every tool call.
type Server struct {
	service *simulation.Service
	version string
}

func NewServer(service *simulation.Service, version string) *Server {
	return &Server{service: service, version: version}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "ccm", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the stdio transport until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.MCPServer().Run(ctx, &mcp.StdioTransport{})
}

// withRequest binds a request logger for one tool call.
func withRequest(ctx context.Context, tool string) context.Context {
	ctx = logging.WithRequest(ctx, "mcp", uuid.NewString())
	logging.Ctx(ctx).Debug().Str("tool", tool).Msg("Tool called")
	return ctx
}

// toolError keeps the error code in the text the client sees.
func toolError(ctx context.Context, tool string, err error) error {
	code := apperr.GetCode(err)
	if code == "UNKNOWN" {
		code = apperr.CodeInternalError
	}
	logging.Ctx(ctx).Warn().Err(err).Str("tool", tool).Str("code", code).Msg("Tool failed")
	return fmt.Errorf("%s: %v", code, err)
}

// decodeInto re-encodes a loosely typed tool argument into v.
func decodeInto(raw map[string]any, v any, what string) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return apperr.WithCode(apperr.CodeInvalidInput, apperr.Wrapf(err, "invalid %s", what))
	}
	if err := json.Unmarshal(data, v); err != nil {
		if apperr.GetCode(err) != "UNKNOWN" {
			return err
		}
		return apperr.WithCode(apperr.CodeInvalidInput, apperr.Wrapf(err, "invalid %s", what))
	}
	return nil
}
