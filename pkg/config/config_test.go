package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/aliasd/internal/bytesize"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/store"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

database:
  type: sqlite
  sqlite:
    path: "`+yamlSafePath(dir)+`/alias.sqlite"

cache:
  capacity: 50

server:
  port: 8081
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
    access_token_duration: 1h
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level normalized to 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Cache.Capacity != 50 {
		t.Errorf("Expected cache capacity 50, got %d", cfg.Cache.Capacity)
	}
	if cfg.Actor.QueueSize != actor.DefaultQueueSize {
		t.Errorf("Expected default queue size, got %d", cfg.Actor.QueueSize)
	}
	if cfg.Actor.Overflow != actor.OverflowBlock {
		t.Errorf("Expected default overflow 'block', got %q", cfg.Actor.Overflow)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Expected server port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Server.JWT.AccessTokenDuration != time.Hour {
		t.Errorf("Expected access token duration 1h, got %v", cfg.Server.JWT.AccessTokenDuration)
	}
	if cfg.Server.JWT.CookieName != "auth" {
		t.Errorf("Expected default cookie name 'auth', got %q", cfg.Server.JWT.CookieName)
	}
	if cfg.Database.SQLite.Path != filepath.Join(dir, "alias.sqlite") && cfg.Database.SQLite.Path != yamlSafePath(dir)+"/alias.sqlite" {
		t.Errorf("Unexpected sqlite path %q", cfg.Database.SQLite.Path)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Type != store.TypeSQLite {
		t.Errorf("Expected default database sqlite, got %q", cfg.Database.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
actor:
  overflow: drop
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown overflow policy")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[database]
type = "badger"

[database.badger]
in_memory = true

[server]
port = 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Database.Type != store.TypeBadger || !cfg.Database.Badger.InMemory {
		t.Errorf("Expected in-memory badger, got %+v", cfg.Database)
	}
}

func TestLoad_ByteSizes(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
database:
  type: badger
  badger:
    in_memory: true
    memtable_size: 16MiB
    value_log_file_size: 268435456
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if got := cfg.Database.Badger.MemTableSize; got != 16*bytesize.MiB {
		t.Errorf("Expected memtable_size 16MiB, got %s", got)
	}
	if got := cfg.Database.Badger.ValueLogFileSize; got != 256*bytesize.MiB {
		t.Errorf("Expected value_log_file_size 256MiB, got %s", got)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ALIASD_LOGGING_LEVEL", "ERROR")
	t.Setenv("ALIASD_SERVER_PORT", "9091")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

server:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("Expected port 9091 from env var, got %d", cfg.Server.Port)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := MustLoad(path); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Cache.Capacity = 12
	cfg.Actor.Overflow = actor.OverflowReject

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat saved config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected permissions 0600, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Cache.Capacity != 12 {
		t.Errorf("Expected capacity 12, got %d", loaded.Cache.Capacity)
	}
	if loaded.Actor.Overflow != actor.OverflowReject {
		t.Errorf("Expected overflow reject, got %q", loaded.Actor.Overflow)
	}
	if loaded.ShutdownTimeout != cfg.ShutdownTimeout {
		t.Errorf("Expected shutdown timeout %v, got %v", cfg.ShutdownTimeout, loaded.ShutdownTimeout)
	}
}

func TestDefaultConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if DefaultConfigExists() {
		t.Fatal("Expected no config in an empty config home")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !DefaultConfigExists() {
		t.Fatal("Expected config to exist after InitConfig")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	if base := filepath.Base(GetConfigDir()); base != "aliasd" {
		t.Errorf("Expected directory name 'aliasd', got %q", base)
	}
}
