package wfc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/tilegen/internal/tiles"
)

// GeneratorConfig contains parameters for map generation
type GeneratorConfig struct {
	Bounds      Bounds
	Seed        int64 // Base seed; attempt n uses Seed + n*1000
	MaxAttempts int   // Solver runs before giving up on contradictions
	MaxSteps    int   // Per-run step budget (0 = solver default)
}

// DefaultGeneratorConfig returns the default board: a
// 50x50 grid anchored at the origin.
func DefaultGeneratorConfig(seed int64) *GeneratorConfig {
	return &GeneratorConfig{
		Bounds:      NewBounds(50, 50),
		Seed:        seed,
		MaxAttempts: 10,
	}
}

// GeneratedMap represents the output of map generation
type GeneratedMap struct {
	Map      *TileMap
	Seed     int64 // Seed of the successful attempt
	BaseSeed int64
	Attempts int
	Stats    Stats
}

// Generator retries the solver with derived seeds until a run succeeds.
type Generator struct {
	catalogue tiles.Catalogue
	config    *GeneratorConfig

	// Observer is forwarded to every solver run.
	Observer func(Event)
	// OnRetry, if set, is called after each failed attempt.
	OnRetry func(attempt int, seed int64, err error)
}

// NewGenerator creates a new map generator
func NewGenerator(c tiles.Catalogue, config *GeneratorConfig) *Generator {
	return &Generator{
		catalogue: c,
		config:    config,
	}
}

// AttemptSeed returns the seed used for the given zero-based attempt.
func (g *Generator) AttemptSeed(attempt int) int64 {
	return g.config.Seed + int64(attempt*1000)
}

// Generate runs the solver until it produces a map. Only contradictions and
// exhausted step budgets are retried; any other error is returned at once.
func (g *Generator) Generate() (*GeneratedMap, error) {
	return g.GenerateContext(context.Background())
}

// GenerateContext is Generate, giving up with ctx.Err() once ctx is done.
func (g *Generator) GenerateContext(ctx context.Context) (*GeneratedMap, error) {
	maxAttempts := g.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	solver, err := NewCatalogueSolver(g.catalogue, g.config.Bounds)
	if err != nil {
		return nil, err
	}
	solver.MaxSteps = g.config.MaxSteps
	solver.Observer = g.Observer

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		seed := g.AttemptSeed(attempt)
		m, err := solver.GenerateContext(ctx, rand.New(rand.NewSource(seed)))
		if err == nil {
			return &GeneratedMap{
				Map:      m,
				Seed:     seed,
				BaseSeed: g.config.Seed,
				Attempts: attempt + 1,
				Stats:    solver.Stats(),
			}, nil
		}

		if !errors.Is(err, ErrContradiction) && !errors.Is(err, ErrMaxSteps) {
			return nil, err
		}
		lastErr = err
		if g.OnRetry != nil {
			g.OnRetry(attempt+1, seed, err)
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
