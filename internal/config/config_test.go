package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LISTEN_ADDR", "GIN_MODE", "SESSION_SECRET", "LOG_LEVEL",
		"STORE_DRIVER", "DATABASE_PATH", "DATABASE_URL", "DATABASE_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Port != "8000" || cfg.ListenAddr != ":8000" {
		t.Fatalf("unexpected address: port=%q listen=%q", cfg.Port, cfg.ListenAddr)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.Path != "gestor.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("DATABASE_NAME", "gestor")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("expected listen addr from PORT, got %q", cfg.ListenAddr)
	}
	if cfg.Store.Driver != DriverMongo {
		t.Fatalf("mongodb url should select mongo driver, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Name != "gestor" {
		t.Fatalf("unexpected database name %q", cfg.Store.Name)
	}
}

func TestLoadExplicitDriverWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.Store.Driver)
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("GESTOR_TEST_DB", "/tmp/gestor-test.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"7000\"\nlog_level: debug\nstore:\n  driver: sqlite\n  path: ${GESTOR_TEST_DB}\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.Store.Path != "/tmp/gestor-test.db" {
		t.Fatalf("expected expanded path, got %q", cfg.Store.Path)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("missing config file should fall back to defaults: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port":   {"PORT": "not-a-port"},
		"driver": {"STORE_DRIVER": "postgres"},
		"mode":   {"GIN_MODE": "verbose"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(""); err == nil {
				t.Fatalf("expected validation error for %v", env)
			}
		})
	}
}

func TestSlogLevelFallback(t *testing.T) {
	cfg := AppConfig{LogLevel: "loud"}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unknown level should fall back to info")
	}
}
