// Package config provides configuration management for the HR backend
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Xinye0723/HrBackend/pkg/errors"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g. HR_SERVER_PORT
const EnvPrefix = "HR"

// DefaultJWTSecret is only suitable for local development
const DefaultJWTSecret = "hrbackend-development-secret-change-me"

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host" json:"host" validate:"required"`
	Port            int           `mapstructure:"port" yaml:"port" json:"port" validate:"required,gt=0,lt=65536"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
	Mode            string        `mapstructure:"mode" yaml:"mode" json:"mode" validate:"oneof=debug release test"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the unit and employee storage
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" yaml:"driver" json:"driver" validate:"oneof=sqlite postgres memory"`
	Path         string `mapstructure:"path" yaml:"path" json:"path" validate:"required_if=Driver sqlite"`
	DSN          string `mapstructure:"dsn" yaml:"dsn,omitempty" json:"dsn,omitempty" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns" json:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns" json:"max_idle_conns" validate:"gte=0"`
	LogQueries   bool   `mapstructure:"log_queries" yaml:"log_queries" json:"log_queries"`
}

// AuthConfig represents session and password settings
type AuthConfig struct {
	JWTSecret              string        `mapstructure:"jwt_secret" yaml:"jwt_secret" json:"-" validate:"required,min=16"`
	TokenExpiry            time.Duration `mapstructure:"token_expiry" yaml:"token_expiry" json:"token_expiry" validate:"gt=0"`
	CookieName             string        `mapstructure:"cookie_name" yaml:"cookie_name" json:"cookie_name" validate:"required"`
	CookieSecure           bool          `mapstructure:"cookie_secure" yaml:"cookie_secure" json:"cookie_secure"`
	PasswordMinLength      int           `mapstructure:"password_min_length" yaml:"password_min_length" json:"password_min_length" validate:"gte=1"`
	BootstrapAdminID       string        `mapstructure:"bootstrap_admin_id" yaml:"bootstrap_admin_id,omitempty" json:"bootstrap_admin_id,omitempty"`
	BootstrapAdminPassword string        `mapstructure:"bootstrap_admin_password" yaml:"bootstrap_admin_password,omitempty" json:"-"`
}

// Config represents the complete application configuration
type Config struct {
	Server         ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Database       DatabaseConfig `mapstructure:"database" yaml:"database" json:"database"`
	Auth           AuthConfig     `mapstructure:"auth" yaml:"auth" json:"auth"`
	LogLevel       string         `mapstructure:"log_level" yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error silent"`
	LogFormat      string         `mapstructure:"log_format" yaml:"log_format" json:"log_format" validate:"oneof=text json"`
	LogFile        string         `mapstructure:"log_file" yaml:"log_file,omitempty" json:"log_file,omitempty"`
	MetricsEnabled bool           `mapstructure:"metrics_enabled" yaml:"metrics_enabled" json:"metrics_enabled"`
}

var defaults = map[string]interface{}{
	"server.host":                   "0.0.0.0",
	"server.port":                   8080,
	"server.read_timeout":           "15s",
	"server.write_timeout":          "15s",
	"server.shutdown_timeout":       "10s",
	"server.cors_origins":           []string{"http://localhost:4200"},
	"server.mode":                   "release",
	"database.driver":               "sqlite",
	"database.path":                 "hr.db",
	"database.dsn":                  "",
	"database.max_open_conns":       10,
	"database.max_idle_conns":       5,
	"database.log_queries":          false,
	"auth.jwt_secret":               DefaultJWTSecret,
	"auth.token_expiry":             "8h",
	"auth.cookie_name":              "token",
	"auth.cookie_secure":            true,
	"auth.password_min_length":      8,
	"auth.bootstrap_admin_id":       "",
	"auth.bootstrap_admin_password": "",
	"log_level":                     "info",
	"log_format":                    "text",
	"log_file":                      "",
	"metrics_enabled":               true,
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WrapError(err, types.ErrorTypeValidation, errors.ErrCodeConfigInvalid, "invalid configuration")
	}
	return nil
}

// RedactedValue replaces secrets in Redacted output
const RedactedValue = "******"

// ToYAML renders the configuration as YAML
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// ToYAMLFile saves configuration to a YAML file
func (c *Config) ToYAMLFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Redacted returns a copy safe to print, with the JWT secret, the bootstrap
// password and the database DSN masked
func (c *Config) Redacted() *Config {
	out := *c
	out.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	for _, secret := range []*string{&out.Auth.JWTSecret, &out.Auth.BootstrapAdminPassword, &out.Database.DSN} {
		if *secret != "" {
			*secret = RedactedValue
		}
	}
	return &out
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration file at path (YAML or JSON, by extension), applies
// HR_ environment overrides and validates the result. An empty path uses defaults
// and the environment only.
func Load(path string) (*Config, error) {
	m, err := NewManager(path)
	if err != nil {
		return nil, err
	}
	return m.Config(), nil
}

// Manager holds the current configuration and reloads it when the file changes
type Manager struct {
	mu      sync.RWMutex
	v       *viper.Viper
	path    string
	current *Config
}

// NewManager loads the configuration at path
func NewManager(path string) (*Manager, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Manager{v: v, path: path, current: cfg}, nil
}

// Config returns the current configuration
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Path returns the watched file, empty when running on defaults
func (m *Manager) Path() string {
	return m.path
}

// Watch reloads the file on change and passes every valid configuration to onChange.
// Invalid edits are reported through onError and the previous configuration is kept.
func (m *Manager) Watch(ctx context.Context, onChange func(*Config), onError func(error)) error {
	if m.path == "" {
		return errors.NewConfigInvalidError("no configuration file to watch")
	}

	m.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}

		cfg, err := decode(m.v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		m.mu.Lock()
		m.current = cfg
		m.mu.Unlock()

		onChange(cfg)
	})
	m.v.WatchConfig()

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
