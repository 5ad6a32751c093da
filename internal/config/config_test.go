package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected default backend 127.0.0.1:8000, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Chat.MaxPlanIterations != 1 {
		t.Errorf("expected maxPlanIterations 1, got %d", cfg.Chat.MaxPlanIterations)
	}
	if cfg.Chat.MaxStepNum != 3 {
		t.Errorf("expected maxStepNum 3, got %d", cfg.Chat.MaxStepNum)
	}
	if cfg.Research.LookbackBlocks != 8 {
		t.Errorf("expected lookbackBlocks 8, got %d", cfg.Research.LookbackBlocks)
	}
	if cfg.Research.LookbackMaxAge != 10*time.Minute {
		t.Errorf("expected lookbackMaxAge 10m, got %v", cfg.Research.LookbackMaxAge)
	}
	if cfg.Kafka.Enabled {
		t.Error("kafka source should be disabled by default")
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", t.TempDir())
	defer os.Setenv("HOME", origHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected defaults, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Paths.HistoryDB == "" {
		t.Error("history db path should default under the config dir")
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", home)
	defer os.Setenv("HOME", origHome)

	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := map[string]any{
		"backend": map[string]any{"baseUrl": "https://research.example.com"},
		"chat":    map[string]any{"maxStepNum": 5},
	}
	data, _ := json.Marshal(file)
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://research.example.com" {
		t.Errorf("file value not applied, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Chat.MaxStepNum != 5 {
		t.Errorf("file value not applied, got %d", cfg.Chat.MaxStepNum)
	}
	// Untouched fields keep defaults.
	if cfg.Chat.MaxSearchResults != 3 {
		t.Errorf("default lost after file merge, got %d", cfg.Chat.MaxSearchResults)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", t.TempDir())
	defer os.Setenv("HOME", origHome)

	os.Setenv("RESEARCHDECK_BACKEND_BASE_URL", "https://env.example.com")
	defer os.Unsetenv("RESEARCHDECK_BACKEND_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://env.example.com" {
		t.Errorf("env override not applied, got %s", cfg.Backend.BaseURL)
	}
}

func TestConfigPathExplicit(t *testing.T) {
	os.Setenv("RESEARCHDECK_CONFIG", "/tmp/researchdeck-test.json")
	defer os.Unsetenv("RESEARCHDECK_CONFIG")

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error: %v", err)
	}
	if path != "/tmp/researchdeck-test.json" {
		t.Errorf("explicit config path ignored, got %s", path)
	}
}

func TestEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env")
	content := "RESEARCHDECK_TEST_KEY=from_file\n# comment\nexport RESEARCHDECK_TEST_OTHER=\"quoted\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	os.Setenv("RESEARCHDECK_TEST_KEY", "from_process")
	defer os.Unsetenv("RESEARCHDECK_TEST_KEY")
	defer os.Unsetenv("RESEARCHDECK_TEST_OTHER")

	if err := loadEnvFile(envPath); err != nil {
		t.Fatalf("loadEnvFile() error: %v", err)
	}
	if got := os.Getenv("RESEARCHDECK_TEST_KEY"); got != "from_process" {
		t.Errorf("process env was overridden: %s", got)
	}
	if got := os.Getenv("RESEARCHDECK_TEST_OTHER"); got != "quoted" {
		t.Errorf("quoted value not loaded: %q", got)
	}
}
