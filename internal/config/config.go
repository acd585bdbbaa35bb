// Package config loads the tilegen YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/tilegen/internal/database"
	"github.com/lawnchairsociety/tilegen/internal/wfc"
)

var ErrInvalidConfig = errors.New("invalid config")

// Output formats understood by the renderers.
const (
	FormatHTML = "html"
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config is the root of a tilegen configuration file.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Output     OutputConfig     `yaml:"output"`
	Archive    database.Config  `yaml:"archive"`
	Server     ServerConfig     `yaml:"server"`
}

// GenerationConfig describes the map to build.
type GenerationConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	XMin   int `yaml:"x_min"`
	YMin   int `yaml:"y_min"`

	// Seed 0 asks the caller to pick a time-based seed.
	Seed int64 `yaml:"seed"`

	// MaxAttempts is how many solver runs to try before giving up on
	// contradictions.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxSteps bounds each run. 0 uses the solver default.
	MaxSteps int `yaml:"max_steps"`

	// Catalogue is the path of a YAML tile catalogue. Empty selects the
	// built-in base game.
	Catalogue string `yaml:"catalogue"`
}

// OutputConfig selects how a solved map is written.
type OutputConfig struct {
	Format string `yaml:"format"`
	// Path "-" writes to stdout.
	Path string `yaml:"path"`
}

// ServerConfig holds tileserver settings.
type ServerConfig struct {
	Address string `yaml:"address"`

	// MaxWidth and MaxHeight cap the size a client may request.
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`

	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	SSH         SSHConfig         `yaml:"ssh"`
}

// RateLimitConfig holds lockout settings for clients that keep sending
// requests the server refuses.
type RateLimitConfig struct {
	// MaxFailures is the number of refused requests before lockout.
	MaxFailures int `yaml:"max_failures"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds"`

	// MaxLockoutSeconds is the maximum lockout duration (for exponential backoff).
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// SSHConfig configures the terminal map viewer.
type SSHConfig struct {
	// Address is the listen address. Empty disables the SSH viewer.
	Address string `yaml:"address"`

	// HostKey is a PEM host key file. Empty uses a key generated at startup.
	HostKey string `yaml:"host_key"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent generation streams from one
	// address. 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum concurrent generation streams. 0 means
	// unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the configuration used when no file is given: a
// 50x50 base-game map written as HTML, no archive.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Width:       50,
			Height:      50,
			MaxAttempts: 10,
		},
		Output: OutputConfig{
			Format: FormatHTML,
			Path:   "output.html",
		},
		Archive: database.Config{
			SQLitePath: "data/maps.db",
			Postgres:   database.DefaultPostgresConfig(),
		},
		Server: ServerConfig{
			Address:   ":8080",
			MaxWidth:  100,
			MaxHeight: 100,
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 50,
			},
			RateLimit: RateLimitConfig{
				MaxFailures:       5,   // Default: 5 refused requests before lockout
				LockoutSeconds:    30,  // Default: 30 second initial lockout
				MaxLockoutSeconds: 300, // Default: 5 minute max lockout
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults.
// A missing file yields the defaults. The result is validated.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	g := c.Generation
	if err := g.Bounds().Validate(); err != nil {
		return fmt.Errorf("%w: generation %w", ErrInvalidConfig, err)
	}
	if g.MaxAttempts < 0 || g.MaxSteps < 0 {
		return fmt.Errorf("%w: negative max_attempts or max_steps", ErrInvalidConfig)
	}

	switch c.Output.Format {
	case FormatHTML, FormatText, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Output.Format)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidConfig)
	}

	switch c.Archive.Driver {
	case "":
	case string(database.DialectSQLite):
		if c.Archive.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite archive without sqlite_path", ErrInvalidConfig)
		}
	case string(database.DialectPostgres):
		if c.Archive.Postgres.Host == "" || c.Archive.Postgres.Database == "" {
			return fmt.Errorf("%w: postgres archive needs host and database", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown archive driver %q", ErrInvalidConfig, c.Archive.Driver)
	}

	s := c.Server
	if s.Address == "" {
		return fmt.Errorf("%w: empty server address", ErrInvalidConfig)
	}
	if s.MaxWidth <= 0 || s.MaxHeight <= 0 {
		return fmt.Errorf("%w: server size limit %dx%d", ErrInvalidConfig, s.MaxWidth, s.MaxHeight)
	}
	if s.WebSocket.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: websocket max_message_size must be positive", ErrInvalidConfig)
	}
	if s.RateLimit.MaxFailures < 0 || s.RateLimit.LockoutSeconds < 0 ||
		s.RateLimit.MaxLockoutSeconds < s.RateLimit.LockoutSeconds {
		return fmt.Errorf("%w: rate_limit lockout settings", ErrInvalidConfig)
	}
	return nil
}

// Bounds returns the configured generation domain.
func (g GenerationConfig) Bounds() wfc.Bounds {
	return wfc.Bounds{XMin: g.XMin, YMin: g.YMin, Width: g.Width, Height: g.Height}
}

// GeneratorConfig converts the section for wfc.NewGenerator using seed as
// the base seed.
func (g GenerationConfig) GeneratorConfig(seed int64) *wfc.GeneratorConfig {
	return &wfc.GeneratorConfig{
		Bounds:      g.Bounds(),
		Seed:        seed,
		MaxAttempts: g.MaxAttempts,
		MaxSteps:    g.MaxSteps,
	}
}

// ArchiveEnabled reports whether generated maps should be stored.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Driver != ""
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // non-browser client
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
