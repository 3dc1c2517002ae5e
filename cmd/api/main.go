package main

import (
	"os"

	"github.com/yigit/feedsphere/internal/pkg/logger"
	"github.com/yigit/feedsphere/internal/server"
)

func main() {
	// NewServer loads config, sets up the logger, migrates the database and wires dependencies
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
