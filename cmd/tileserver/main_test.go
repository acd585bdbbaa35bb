package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServe_ValidatesFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tileserver.log")
	configPath := filepath.Join(dir, "tilegen.yaml")
	content := fmt.Sprintf("logging:\n  console_enabled: false\n  file_enabled: true\n  file_path: %q\n", logPath)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if code := serve([]string{"-config", configPath, "-address", ""}); code != 1 {
		t.Fatalf("serve() = %d, want 1", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log not written: %v", err)
	}
	if !strings.Contains(string(data), "Invalid settings") {
		t.Errorf("log = %q, want the validation failure", data)
	}
}
