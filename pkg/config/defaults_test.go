package config

import (
	"testing"
	"time"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/cache"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.JWT.AccessTokenDuration != 7*24*time.Hour {
		t.Errorf("Expected 7 day access tokens, got %v", cfg.Server.JWT.AccessTokenDuration)
	}
	if cfg.Server.JWT.RefreshTokenDuration != 30*24*time.Hour {
		t.Errorf("Expected 30 day refresh tokens, got %v", cfg.Server.JWT.RefreshTokenDuration)
	}
}

func TestApplyDefaults_CacheAndActor(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Cache.Capacity != cache.DefaultCapacity {
		t.Errorf("Expected capacity %d, got %d", cache.DefaultCapacity, cfg.Cache.Capacity)
	}
	if cfg.Actor.QueueSize != actor.DefaultQueueSize {
		t.Errorf("Expected queue size %d, got %d", actor.DefaultQueueSize, cfg.Actor.QueueSize)
	}
	if cfg.Actor.Overflow != actor.OverflowBlock {
		t.Errorf("Expected overflow block, got %q", cfg.Actor.Overflow)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port while disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging:         LoggingConfig{Level: "DEBUG", Format: "json", Output: "stderr"},
		ShutdownTimeout: 5 * time.Second,
		Cache:           CacheConfig{Capacity: 10},
		Actor:           ActorConfig{QueueSize: 8, Overflow: actor.OverflowReject},
	}
	cfg.Server.Port = 9000

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" || cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Logging values were overwritten: %+v", cfg.Logging)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Cache.Capacity != 10 {
		t.Errorf("Expected capacity 10, got %d", cfg.Cache.Capacity)
	}
	if cfg.Actor.QueueSize != 8 || cfg.Actor.Overflow != actor.OverflowReject {
		t.Errorf("Actor values were overwritten: %+v", cfg.Actor)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}
}
