package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigWithEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := DefaultConfig()
	cfg.OAuth.ClientID = "client-id"
	cfg.OAuth.ClientSecret = "client-secret"
	cfg.Retry.MaxRetries = 5

	if _, err := Save(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	t.Setenv("GMAIL_CLI_OAUTH_CLIENT_ID", "env-client-id")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if loaded.OAuth.ClientID != "env-client-id" {
		t.Fatalf("expected env override, got %q", loaded.OAuth.ClientID)
	}
	if loaded.OAuth.ClientSecret != "client-secret" {
		t.Fatalf("expected client secret from file, got %q", loaded.OAuth.ClientSecret)
	}
	if loaded.Retry.MaxRetries != 5 {
		t.Fatalf("expected max retries from file, got %d", loaded.Retry.MaxRetries)
	}
}

func TestSaveCreatesConfigDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	path, err := Save(DefaultConfig())
	if err != nil {
		t.Fatalf("save config: %v", err)
	}

	if want := filepath.Join(tmp, ".config", AppName, "config.yaml"); path != want {
		t.Fatalf("config path = %q, want %q", path, want)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("stat config dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected config dir, got %v", info.Mode())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Retry.MaxRetries != 3 {
		t.Fatalf("expected 3 retries by default, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay != time.Second {
		t.Fatalf("expected 1s base delay, got %v", cfg.Retry.BaseDelay)
	}
	if cfg.Defaults.AttachmentLimitMB != 25 {
		t.Fatalf("expected 25MB attachment limit, got %d", cfg.Defaults.AttachmentLimitMB)
	}
}
