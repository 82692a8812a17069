package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
staging_dir = %q
log_dir = %q
`, filepath.Join(base, "data"), filepath.Join(base, "staging"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueueStatsOnEmptyStore(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", configPath, "queue", "stats")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	if !strings.Contains(out, "Pending") || !strings.Contains(out, "Archived") {
		t.Fatalf("output missing buckets:\n%s", out)
	}
}

func TestQueueListRejectsUnknownStage(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", configPath, "queue", "list", "--stage", "bogus"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestQueueClearRequiresConfirmation(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", configPath, "queue", "clear"); err == nil {
		t.Fatal("expected error without --yes")
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not name target:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestNotifyTestWithoutTopic(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", configPath, "notify", "test")
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	if !strings.Contains(out, "not configured") {
		t.Fatalf("output = %q", out)
	}
}
