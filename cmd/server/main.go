// Package main is the entry point for the meme gallery server.
//
// main stays minimal:
//  1. Read configuration (environment, optionally a .env file)
//  2. Create the logger
//  3. Hand both to internal/server and block until shutdown
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/meme-museum/internal/config"
	"github.com/sakif/meme-museum/internal/repository/sqlite"
	"github.com/sakif/meme-museum/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// The SQLite file's directory must exist before the driver opens it.
	if cfg.StoreBackend == config.BackendSQLite && cfg.DBPath != sqlite.MemoryPath {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
