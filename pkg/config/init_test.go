package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitConfig_WritesLoadableDefaults(t *testing.T) {
	// XDG_CONFIG_HOME instead of HOME: os.UserHomeDir reads USERPROFILE on Windows.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if path != GetDefaultConfigPath() {
		t.Errorf("Expected %s, got %s", GetDefaultConfigPath(), path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.HasPrefix(string(content), "# aliasd configuration file") {
		t.Error("Expected the comment header at the top of the file")
	}
	for _, key := range []string{"logging:", "database:", "cache:", "actor:", "server:", "shutdown_timeout: 30s"} {
		if !strings.Contains(string(content), key) {
			t.Errorf("Generated config is missing %q", key)
		}
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
}

func TestInitConfigToPath_Existing(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		wantErr bool
	}{
		{"refused without force", false, true},
		{"replaced with force", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config.yaml")
			if err := InitConfigToPath(path, false); err != nil {
				t.Fatalf("First InitConfigToPath failed: %v", err)
			}
			if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
				t.Fatalf("Failed to overwrite config: %v", err)
			}

			err := InitConfigToPath(path, tt.force)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "already exists") {
					t.Fatalf("Expected 'already exists' error, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InitConfigToPath failed: %v", err)
			}
			if _, err := Load(path); err != nil {
				t.Fatalf("Recreated config does not load: %v", err)
			}
		})
	}
}
