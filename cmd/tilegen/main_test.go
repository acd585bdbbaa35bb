package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeLogging writes a config that logs only to a file in dir.
func writeLogging(t *testing.T, dir string) (configPath, logPath string) {
	t.Helper()
	logPath = filepath.Join(dir, "tilegen.log")
	configPath = filepath.Join(dir, "tilegen.yaml")
	content := fmt.Sprintf("logging:\n  console_enabled: false\n  file_enabled: true\n  file_path: %q\n", logPath)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath, logPath
}

func TestExecute_WritesText(t *testing.T) {
	dir := t.TempDir()
	configPath, _ := writeLogging(t, dir)
	out := filepath.Join(dir, "map.txt")

	code := execute([]string{"-config", configPath, "-width", "3", "-height", "2", "-seed", "5", "-format", "text", "-output", out})
	if code != 0 {
		t.Fatalf("execute() = %d, want 0", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("output is empty")
	}
}

func TestExecute_FailureStillFlushesProfileAndLog(t *testing.T) {
	dir := t.TempDir()
	configPath, logPath := writeLogging(t, dir)
	profDir := filepath.Join(dir, "prof")

	code := execute([]string{"-config", configPath, "-width", "0", "-profile", profDir})
	if code != 1 {
		t.Fatalf("execute() = %d, want 1", code)
	}

	if _, err := os.Stat(filepath.Join(profDir, "cpu.pprof")); err != nil {
		t.Errorf("CPU profile not written: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log not written: %v", err)
	}
	if !strings.Contains(string(data), "Invalid settings") {
		t.Errorf("log = %q, want the validation failure", data)
	}
}

func TestExecute_BadFlag(t *testing.T) {
	if code := execute([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("execute() = %d, want 2", code)
	}
}
