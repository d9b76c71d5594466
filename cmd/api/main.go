package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-tivo/pkg/api"
	"github.com/urmzd/homai-tivo/pkg/app"

	_ "github.com/urmzd/homai-tivo/docs"
)

// @title           Homai TiVo API
// @version         1.0
// @description     REST API for controlling TiVo set-top boxes and looking up TV listings

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./config.yaml or ~/.config/homai-tivo/config.yaml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/homai-tivo/tivo.db)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Start(ctx, app.Options{ConfigPath: *configPath, DBPath: *dbPath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	router := api.NewRouter(a.Registry, a.Registry)

	addr := a.APIAddress()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("address", addr).Msg("Starting API server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
		a.Close()
		os.Exit(1)
	}
}
