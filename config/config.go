// Package config provides configuration loading and validation for the
// rac server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v4"

	"github.com/aiopener/rac/racerrors"
	"github.com/aiopener/rac/resolver"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Resolver ResolverConfig `yaml:"resolver"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host" validate:"required"`
	Port         int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
}

// DataConfig locates the document corpus.
type DataConfig struct {
	Dir string `yaml:"dir" validate:"required"`
	// TenantsFile is a YAML tenant table; empty uses the built-in bindings
	TenantsFile string `yaml:"tenants_file,omitempty"`
	// MaxFileSize caps the size of a single corpus file in bytes
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"startswith=/"`
}

// ResolverConfig bounds inheritance and reference resolution.
type ResolverConfig struct {
	MaxDepth int `yaml:"max_depth" validate:"min=1,max=64"`
}

// MCPConfig configures the MCP stdio server.
type MCPConfig struct {
	Name string `yaml:"name" validate:"required"`
}

// Defaults.
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	DefaultDataDir      = "data"
	DefaultMaxFileSize  = 10 << 20
	DefaultMetricsPath  = "/metrics"
	DefaultMCPName      = "rac"
)

// Load reads configuration from a YAML file, expands ${VAR} references,
// applies RAC_* environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &racerrors.ConfigError{Message: "invalid config YAML", Cause: err}
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file is given. Environment
// overrides still apply.
func Default() (*Config, error) {
	return finish(&Config{})
}

// LoadOrDefault loads path when it is non-empty and Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// applyEnvOverrides applies RAC_* environment variables. Environment
// variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAC_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RAC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RAC_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("RAC_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("RAC_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("RAC_TENANTS_FILE"); v != "" {
		cfg.Data.TenantsFile = v
	}

	if v := os.Getenv("RAC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("RAC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}

	if v := os.Getenv("RAC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("RAC_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resolver.MaxDepth = n
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = DefaultDataDir
	}
	if cfg.Data.MaxFileSize == 0 {
		cfg.Data.MaxFileSize = DefaultMaxFileSize
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Resolver.MaxDepth == 0 {
		cfg.Resolver.MaxDepth = resolver.MaxDepth
	}
	if cfg.MCP.Name == "" {
		cfg.MCP.Name = DefaultMCPName
	}
}

var structValidator = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate reports the first failing field as a ConfigError naming its YAML
// path, e.g. server.port.
func validate(cfg *Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		option := fe.Namespace()
		if _, rest, ok := strings.Cut(option, "."); ok {
			option = rest
		}
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &racerrors.ConfigError{Option: option, Value: fe.Value(), Message: msg}
	}
	return &racerrors.ConfigError{Message: "invalid configuration", Cause: err}
}
