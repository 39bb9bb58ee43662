package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/api"
	"github.com/marmos91/aliasd/pkg/store"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the aliasd server configuration. A value is taken from, in
// decreasing precedence, an ALIASD_* environment variable, the YAML or TOML
// file, then the defaults of ApplyDefaults.
type Config struct {
	Logging         LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Database selects the alias store backend.
	Database store.Config `mapstructure:"database" yaml:"database" json:"database"`

	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache" json:"cache"`
	Actor   ActorConfig   `mapstructure:"actor" yaml:"actor" json:"actor"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// Server is the HTTP API listener.
	Server api.Config `mapstructure:"server" yaml:"server" json:"server"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// TelemetryConfig exports traces over OTLP gRPC to Endpoint (host:port).
// SampleRate is the kept fraction of root spans.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure" json:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
}

// ProfilingConfig pushes Pyroscope profiles to Endpoint (a URL).
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types" json:"profile_types"`
}

// CacheConfig sizes the alias resolution cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached aliases.
	// Default: 4096
	Capacity int `mapstructure:"capacity" validate:"gte=0" yaml:"capacity" json:"capacity"`
}

// ActorConfig configures the connection actor.
type ActorConfig struct {
	// QueueSize is the number of commands that may wait for the worker.
	// Default: 1024
	QueueSize int `mapstructure:"queue_size" validate:"gte=0" yaml:"queue_size" json:"queue_size"`

	// Overflow decides what happens when the queue is full.
	// Valid values: block, reject
	// Default: block
	Overflow actor.OverflowPolicy `mapstructure:"overflow" validate:"omitempty,oneof=block reject" yaml:"overflow" json:"overflow"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`
}

// Load reads configPath, or config.yaml in the default directory when
// configPath is empty, overlays the environment and validates the result.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return GetDefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for commands that need a real file: a missing file is
// an error that explains how to create one.
func MustLoad(configPath string) (*Config, error) {
	hint := "  aliasd init"
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	} else {
		hint = "  aliasd init --config " + configPath
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no configuration file found at %s\n\nCreate one with:\n%s", configPath, hint)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML with owner-only permissions, since
// it may hold the JWT secret.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// newViper maps ALIASD_SECTION_KEY onto section.key.
func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ALIASD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		v.AddConfigPath(GetConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	} else {
		v.SetConfigFile(configPath)
	}
	return v
}

// decodeHooks accept "30s" style durations, bare nanosecond counts,
// "16MiB" style byte sizes and comma separated lists.
var decodeHooks = mapstructure.ComposeDecodeHookFunc(
	numericDurationHook,
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.TextUnmarshallerHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

var durationType = reflect.TypeOf(time.Duration(0))

// numericDurationHook turns the ints and floats YAML produces into
// nanosecond durations.
func numericDurationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch n := data.(type) {
	case int:
		return time.Duration(n), nil
	case int64:
		return time.Duration(n), nil
	case float64:
		return time.Duration(n), nil
	}
	return data, nil
}

// GetConfigDir is $XDG_CONFIG_HOME/aliasd, else ~/.config/aliasd, else the
// working directory.
func GetConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aliasd")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "aliasd")
	}
	return "."
}

// GetDefaultConfigPath is config.yaml inside GetConfigDir.
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether GetDefaultConfigPath exists.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
