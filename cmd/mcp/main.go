package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-tivo/pkg/app"
	homaimcp "github.com/urmzd/homai-tivo/pkg/mcp"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./config.yaml or ~/.config/homai-tivo/config.yaml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/homai-tivo/tivo.db)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logging goes to stderr; stdout is the MCP transport.
	a, err := app.Start(ctx, app.Options{ConfigPath: *configPath, DBPath: *dbPath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	mcpServer := homaimcp.NewServer(a.Registry)

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
