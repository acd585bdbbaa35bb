// tileserver streams map generation to browsers over WebSocket and,
// optionally, draws maps for ssh clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/tilegen/internal/config"
	"github.com/lawnchairsociety/tilegen/internal/database"
	"github.com/lawnchairsociety/tilegen/internal/logger"
	"github.com/lawnchairsociety/tilegen/internal/server"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

func main() {
	os.Exit(serve(os.Args[1:]))
}

// serve runs the servers until interrupted and returns the exit status.
func serve(args []string) int {
	fs := flag.NewFlagSet("tileserver", flag.ContinueOnError)
	configFile := fs.String("config", "tilegen.yaml", "Path to config YAML file")
	loggingConfig := fs.String("logging", "", "Path to logging config YAML file (default: the -config file)")
	address := fs.String("address", "", "HTTP listen address (overrides config)")
	sshAddress := fs.String("ssh", "", "SSH viewer listen address (overrides config, empty disables)")
	catalogueFile := fs.String("catalogue", "", "Tile catalogue YAML file (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *loggingConfig == "" {
		*loggingConfig = *configFile
	}
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using default logging\n", err)
		logConfig = logger.DefaultConfig()
	}
	if err := logger.Initialize(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		return 1
	}
	defer logger.Close()

	logger.Info("Starting tile server")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Error("Failed to load config", "path", *configFile, "error", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Server.Address = *address
		case "ssh":
			cfg.Server.SSH.Address = *sshAddress
		case "catalogue":
			cfg.Generation.Catalogue = *catalogueFile
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid settings", "error", err)
		return 1
	}

	c := tiles.BaseGame()
	if cfg.Generation.Catalogue != "" {
		if c, err = tiles.LoadCatalogue(cfg.Generation.Catalogue); err != nil {
			logger.Error("Failed to load catalogue", "path", cfg.Generation.Catalogue, "error", err)
			return 1
		}
	}
	logger.Info("Catalogue ready", "shapes", c.Len(), "variants", len(c.Variants()))

	var archive *database.Database
	if cfg.ArchiveEnabled() {
		archive, err = database.OpenWithConfig(cfg.Archive)
		if err != nil {
			logger.Error("Failed to open archive", "driver", cfg.Archive.Driver, "error", err)
			return 1
		}
		defer archive.Close()
		logger.Info("Map archive enabled", "driver", cfg.Archive.Driver)
	}

	switch origins := cfg.Server.WebSocket.AllowedOrigins; {
	case len(origins) == 0:
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	case len(origins) == 1 && origins[0] == "*":
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	default:
		logger.Info("WebSocket CORS policy", "allowed_origins", origins)
	}

	srv := server.NewServer(cfg, c, archive)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	if cfg.Server.SSH.Address != "" {
		viewer, err := server.NewSSHServer(srv)
		if err != nil {
			logger.Error("Failed to start SSH viewer", "error", err)
			return 1
		}
		g.Go(func() error { return viewer.ListenAndServe(ctx) })
	}

	logger.Info("Tile server running", "address", cfg.Server.Address, "ssh", cfg.Server.SSH.Address)
	logger.Info("Press Ctrl+C to shutdown")

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return 1
	}
	logger.Info("Server stopped")
	return 0
}
