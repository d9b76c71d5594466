package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// Version is reported to MCP clients during initialize.
const Version = "0.1.0"

const instructions = `Controls TiVo set-top boxes on the local network.
Call list_devices first to find device ids. Channels are strings such as
"702" or "12.3". Tuning a box in standby is a no-op; power it on first.
Listings tools only work when a zap2it account is configured.`

// Server exposes set-top box control and channel listings as MCP tools.
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
}

func NewServer(controller device.Controller) *Server {
	s := &Server{controller: controller}

	s.mcpServer = server.NewMCPServer(
		"homai-tivo",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Info().Str("version", Version).Msg("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}
