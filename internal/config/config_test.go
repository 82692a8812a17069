package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collectord/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to be reported as absent")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Retrieval.Strategy != "actor" {
		t.Fatalf("expected default strategy, got %q", cfg.Retrieval.Strategy)
	}
	if cfg.Intake.Timezone != "Asia/Tehran" {
		t.Fatalf("expected default timezone, got %q", cfg.Intake.Timezone)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		"[retrieval]",
		`strategy = "direct"`,
		"pacing_seconds = 2",
		"",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Retrieval.Strategy != "direct" {
		t.Fatalf("expected direct strategy, got %q", cfg.Retrieval.Strategy)
	}
	if cfg.Retrieval.PacingSeconds != 2 {
		t.Fatalf("expected pacing 2, got %d", cfg.Retrieval.PacingSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json logging, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[retrieval]\nstrategy = \"ftp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown retrieval strategy")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[intake]\ntimezone = \"Mars/Olympus\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestActorStrategyRequiresActorID(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval.ActorID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when actor_id missing for actor strategy")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
}
