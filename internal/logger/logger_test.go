package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}

	if config.Level != "INFO" {
		t.Errorf("Level = %q, want %q", config.Level, "INFO")
	}
	if !config.Console() {
		t.Error("Console() = false, want true")
	}
	if config.FileEnabled {
		t.Error("FileEnabled = true, want false")
	}
	if config.FilePath != "logs/tilegen.log" {
		t.Errorf("FilePath = %q, want %q", config.FilePath, "logs/tilegen.log")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfig(t, `logging:
  level: DEBUG
  console_enabled: false
  console_format: json
  file_enabled: true
  file_path: test.log
  file_max_size_mb: 20
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want %q", config.Level, "DEBUG")
	}
	if config.Console() {
		t.Error("Console() = true, want false")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want %q", config.ConsoleFormat, "json")
	}
	if !config.FileEnabled || config.FilePath != "test.log" {
		t.Errorf("file = %v %q, want enabled test.log", config.FileEnabled, config.FilePath)
	}
	if config.FileMaxSizeMB != 20 {
		t.Errorf("FileMaxSizeMB = %d, want 20", config.FileMaxSizeMB)
	}
	if config.FileMaxBackups != 5 {
		t.Errorf("FileMaxBackups = %d, want default 5", config.FileMaxBackups)
	}
}

func TestLoadConfigOmittedConsoleStaysOn(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "logging:\n  level: WARN\n"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !config.Console() {
		t.Error("Console() = false when console_enabled is omitted")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "logging: [unclosed"},
		{"bad level", "logging:\n  level: LOUD\n"},
		{"bad format", "logging:\n  console_format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfig() error = nil, want error")
			}
		})
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("TILEGEN_LOG_LEVEL", "ERROR")
	t.Setenv("TILEGEN_LOG_FORMAT", "json")
	t.Setenv("TILEGEN_LOG_FILE_ENABLED", "true")
	t.Setenv("TILEGEN_LOG_FILE_PATH", "/custom/path.log")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want %q", config.Level, "ERROR")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want %q", config.ConsoleFormat, "json")
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true")
	}
	if config.FilePath != "/custom/path.log" {
		t.Errorf("FilePath = %q, want %q", config.FilePath, "/custom/path.log")
	}
}

func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tilegen.log")
	off := false
	config := DefaultConfig()
	config.ConsoleEnabled = &off
	config.FileEnabled = true
	config.FilePath = path
	config.FileFormat = "json"

	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	Info("map generated", "width", 4)
	if err := Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	logger = nil

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"map generated"`) || !strings.Contains(string(data), `"width":4`) {
		t.Errorf("log file = %s", data)
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "text", slog.LevelInfo))
	defer func() { logger = nil }()

	Info("Test message", "key", "value")
	Debug("This should not appear")

	output := buf.String()
	if !strings.Contains(output, "Test message") || !strings.Contains(output, "key=value") {
		t.Errorf("output missing INFO record: %s", output)
	}
	if strings.Contains(output, "This should not appear") {
		t.Errorf("output contains DEBUG record at INFO: %s", output)
	}
}

func TestAlwaysBypassesLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "text", slog.LevelError))
	defer func() { logger = nil }()

	Debug("Debug message")
	Info("Info message")
	Warning("Warning")
	Error("Error message")
	Always("Always message")

	output := buf.String()
	for _, absent := range []string{"Debug message", "Info message", "Warning"} {
		if strings.Contains(output, absent) {
			t.Errorf("%q logged at ERROR level", absent)
		}
	}
	if !strings.Contains(output, "Error message") {
		t.Error("ERROR message missing from output")
	}
	if !strings.Contains(output, "level=ALWAYS") || !strings.Contains(output, "Always message") {
		t.Errorf("ALWAYS record missing or misformatted: %s", output)
	}
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "text", slog.LevelDebug))
	defer func() { logger = nil }()

	Debugf("Debug: %d + %d = %d", 1, 2, 3)
	Infof("Info: %s", "test")
	Warningf("Warning: %.2f%%", 99.95)
	Errorf("Error: %v", "failed")

	output := buf.String()
	for _, want := range []string{"Debug: 1 + 2 = 3", "Info: test", "Warning: 99.95%", "Error: failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newMultiHandler(
		slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger = slog.New(h).With("seed", 7)
	defer func() { logger = nil }()

	Info("info only")
	Warning("both")

	if !strings.Contains(buf1.String(), "info only") || !strings.Contains(buf1.String(), "seed=7") {
		t.Errorf("first handler = %s", buf1.String())
	}
	if strings.Contains(buf2.String(), "info only") {
		t.Error("second handler received a record below its level")
	}
	if !strings.Contains(buf2.String(), "both") || !strings.Contains(buf2.String(), "seed=7") {
		t.Errorf("second handler = %s", buf2.String())
	}
}

func TestNilLogger(t *testing.T) {
	logger = nil

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logging with nil logger caused panic: %v", r)
		}
	}()

	Debug("debug")
	Info("info")
	Warning("warning")
	Error("error")
	Always("always")
	With("k", "v").Info("discarded")
}
