// tilegen generates a Carcassonne-style tile map with wave function
// collapse and writes it as HTML, text or YAML.
//
// Usage:
//
//	go run ./cmd/tilegen -width 30 -height 20 -seed 42 -format text -output -
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"

	"github.com/lawnchairsociety/tilegen/internal/config"
	"github.com/lawnchairsociety/tilegen/internal/database"
	"github.com/lawnchairsociety/tilegen/internal/logger"
	"github.com/lawnchairsociety/tilegen/internal/mapfile"
	"github.com/lawnchairsociety/tilegen/internal/render"
	"github.com/lawnchairsociety/tilegen/internal/tiles"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command and returns its exit status. Deferred cleanup
// (profile, log file) runs before main exits.
func execute(args []string) int {
	fs := flag.NewFlagSet("tilegen", flag.ContinueOnError)
	configFile := fs.String("config", "tilegen.yaml", "Path to config YAML file")
	loggingConfig := fs.String("logging", "", "Path to logging config YAML file (default: the -config file)")
	width := fs.Int("width", 0, "Map width in tiles (overrides config)")
	height := fs.Int("height", 0, "Map height in tiles (overrides config)")
	seed := fs.Int64("seed", 0, "Base seed (default: config seed, or random based on current time)")
	attempts := fs.Int("attempts", 0, "Solver runs before giving up (overrides config)")
	format := fs.String("format", "", "Output format: html, text or yaml (overrides config)")
	output := fs.String("output", "", "Output path, - for stdout (overrides config)")
	catalogue := fs.String("catalogue", "", "Tile catalogue YAML file (default: base game)")
	archive := fs.String("archive", "", "Also store the map in this SQLite archive")
	profileDir := fs.String("profile", "", "Write a CPU profile to this directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.Quiet).Stop()
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

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Error("Failed to load config", "path", *configFile, "error", err)
		return 1
	}

	// Flags override the file
	g := &cfg.Generation
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			g.Width = *width
		case "height":
			g.Height = *height
		case "seed":
			g.Seed = *seed
		case "attempts":
			g.MaxAttempts = *attempts
		case "format":
			cfg.Output.Format = *format
		case "output":
			cfg.Output.Path = *output
		case "catalogue":
			g.Catalogue = *catalogue
		case "archive":
			cfg.Archive = database.DefaultConfig(*archive)
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid settings", "error", err)
		return 1
	}

	if err := run(cfg); err != nil {
		logger.Error("Generation failed", "error", err)
		return 1
	}
	return 0
}

func run(cfg *config.Config) error {
	c, err := loadCatalogue(cfg.Generation.Catalogue)
	if err != nil {
		return err
	}

	baseSeed := cfg.Generation.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
		logger.Info("Seed selected", "seed", baseSeed, "random", true)
	} else {
		logger.Info("Seed selected", "seed", baseSeed, "random", false)
	}

	gen := wfc.NewGenerator(c, cfg.Generation.GeneratorConfig(baseSeed))
	gen.OnRetry = func(attempt int, seed int64, err error) {
		logger.Warning("Attempt failed, retrying", "attempt", attempt, "seed", seed, "error", err)
	}

	start := time.Now()
	result, err := gen.Generate()
	if err != nil {
		return err
	}
	logger.Info("Map solved",
		"width", cfg.Generation.Width,
		"height", cfg.Generation.Height,
		"seed", result.Seed,
		"attempts", result.Attempts,
		"steps", result.Stats.Steps,
		"elapsed", time.Since(start))

	if err := writeOutput(cfg.Output, result); err != nil {
		return err
	}

	if cfg.ArchiveEnabled() {
		if err := archiveMap(cfg.Archive, result); err != nil {
			return err
		}
	}

	logger.Always("Map generated",
		"size", fmt.Sprintf("%dx%d", cfg.Generation.Width, cfg.Generation.Height),
		"seed", result.Seed,
		"attempts", result.Attempts,
		"output", cfg.Output.Path)
	return nil
}

func loadCatalogue(path string) (tiles.Catalogue, error) {
	if path == "" {
		return tiles.BaseGame(), nil
	}
	c, err := tiles.LoadCatalogue(path)
	if err != nil {
		return tiles.Catalogue{}, err
	}
	logger.Info("Catalogue loaded", "path", path, "shapes", c.Len(), "variants", len(c.Variants()))
	return c, nil
}

func writeOutput(out config.OutputConfig, result *wfc.GeneratedMap) error {
	var w io.Writer = os.Stdout
	if out.Path != "-" {
		if dir := filepath.Dir(out.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(out.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	title := fmt.Sprintf("Carcassonne %dx%d (seed %d)", result.Map.Width(), result.Map.Height(), result.Seed)
	switch out.Format {
	case config.FormatHTML:
		return render.HTML(w, result.Map, render.HTMLOptions{Title: title, Seed: result.Seed})
	case config.FormatText:
		return render.Text(w, result.Map, render.TextOptions{Title: title, Legend: true})
	case config.FormatYAML:
		f, err := mapfile.FromMap(result.Map, result.Seed, time.Now())
		if err != nil {
			return err
		}
		return mapfile.Encode(w, f)
	default:
		return fmt.Errorf("%w: unknown output format %q", config.ErrInvalidConfig, out.Format)
	}
}

func archiveMap(cfg database.Config, result *wfc.GeneratedMap) error {
	db, err := database.OpenWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer db.Close()

	rec, created, err := db.SaveMap(result.Seed, result.Map)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Map archived", "map_id", rec.ID, "digest", rec.Digest)
	} else {
		logger.Info("Map already archived", "map_id", rec.ID, "digest", rec.Digest)
	}
	return nil
}
