package logger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled *bool  `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// loggingFile is the top-level layout of a logging YAML file.
type loggingFile struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only text logging at INFO.
func DefaultConfig() Config {
	console := true
	return Config{
		Level:          "INFO",
		ConsoleEnabled: &console,
		ConsoleFormat:  "text",
		FilePath:       "logs/tilegen.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// Console reports whether console output is on. Unset means on.
func (c Config) Console() bool {
	return c.ConsoleEnabled == nil || *c.ConsoleEnabled
}

// LoadConfig reads the logging block of a YAML file over the defaults and
// then applies TILEGEN_LOG_* environment overrides. A missing file is not
// an error; a malformed one is.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			var file loggingFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", configPath, err)
			}
			config.merge(file.Logging)
		case !os.IsNotExist(err):
			return config, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	config.applyEnv()
	return config, config.Validate()
}

// merge copies every field set in other over c.
func (c *Config) merge(other Config) {
	if other.Level != "" {
		c.Level = other.Level
	}
	if other.ConsoleEnabled != nil {
		c.ConsoleEnabled = other.ConsoleEnabled
	}
	if other.ConsoleFormat != "" {
		c.ConsoleFormat = other.ConsoleFormat
	}
	c.FileEnabled = other.FileEnabled
	if other.FilePath != "" {
		c.FilePath = other.FilePath
	}
	if other.FileFormat != "" {
		c.FileFormat = other.FileFormat
	}
	if other.FileMaxSizeMB > 0 {
		c.FileMaxSizeMB = other.FileMaxSizeMB
	}
	if other.FileMaxBackups > 0 {
		c.FileMaxBackups = other.FileMaxBackups
	}
	if other.FileMaxAgeDays > 0 {
		c.FileMaxAgeDays = other.FileMaxAgeDays
	}
	c.FileCompress = other.FileCompress
}

func (c *Config) applyEnv() {
	if level := os.Getenv("TILEGEN_LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("TILEGEN_LOG_FORMAT"); format != "" {
		c.ConsoleFormat = format
	}
	if v := os.Getenv("TILEGEN_LOG_FILE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.FileEnabled = enabled
		}
	}
	if path := os.Getenv("TILEGEN_LOG_FILE_PATH"); path != "" {
		c.FilePath = path
	}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	if _, ok := levels[strings.ToUpper(c.Level)]; !ok {
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	for _, f := range []string{c.ConsoleFormat, c.FileFormat} {
		if f != "text" && f != "json" {
			return fmt.Errorf("unknown log format %q", f)
		}
	}
	if c.FileEnabled && c.FilePath == "" {
		return fmt.Errorf("file logging enabled without file_path")
	}
	return nil
}
