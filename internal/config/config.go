// Package config loads the server configuration.
//
// Layers, lowest precedence first:
//  1. defaults (Defaults)
//  2. optional YAML file: $OPENART_CONFIG, else ./config.yaml if present
//  3. environment variables
//
// Environment names are OPENART_<SECTION>_<KEY>, e.g.
// OPENART_AUTH_ACCESS_TOKEN_SECRET maps to auth.access_token_secret. The bare
// names used by earlier deployments (PORT, CORS_ORIGIN, ACCESS_TOKEN_SECRET,
// ...) are accepted as aliases. Durations use Go syntax ("15m", "240h").
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable holding an explicit config file path.
const ConfigPathEnvVar = "OPENART_CONFIG"

const envPrefix = "OPENART_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Assets   AssetsConfig   `koanf:"assets"`
	Logging  LoggingConfig  `koanf:"logging"`
	Jobs     JobsConfig     `koanf:"jobs"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	CORSOrigin     string        `koanf:"cors_origin"`
	APIPrefix      string        `koanf:"api_prefix"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `koanf:"access_token_secret"`
	AccessTokenExpiry  time.Duration `koanf:"access_token_expiry"`
	RefreshTokenSecret string        `koanf:"refresh_token_secret"`
	RefreshTokenExpiry time.Duration `koanf:"refresh_token_expiry"`
	CookieDomain       string        `koanf:"cookie_domain"`
	CookieSecure       bool          `koanf:"cookie_secure"`
	BcryptCost         int           `koanf:"bcrypt_cost"`
}

// AssetsConfig selects the media host. Driver "local" writes below LocalDir
// and serves it at /static; "s3" uses the bucket settings.
type AssetsConfig struct {
	Driver        string        `koanf:"driver"`
	LocalDir      string        `koanf:"local_dir"`
	PublicBaseURL string        `koanf:"public_base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	Bucket        string        `koanf:"bucket"`
	Region        string        `koanf:"region"`
	Endpoint      string        `koanf:"endpoint"`
	AccessKey     string        `koanf:"access_key"`
	SecretKey     string        `koanf:"secret_key"`
	UsePathStyle  bool          `koanf:"use_path_style"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type JobsConfig struct {
	SessionPurgeSchedule string `koanf:"session_purge_schedule"`
}

// Defaults returns the built-in configuration. Secrets are left empty and
// must be supplied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8000,
			CORSOrigin:     "http://localhost:5173",
			APIPrefix:      "/openart/api",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxBodyBytes:   16 << 10,
			MaxUploadBytes: 20 << 20,
		},
		Database: DatabaseConfig{Path: "data/openart.db"},
		Auth: AuthConfig{
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 10 * 24 * time.Hour,
			CookieSecure:       true,
			BcryptCost:         10,
		},
		Assets: AssetsConfig{
			Driver:        "local",
			LocalDir:      "data/assets",
			PublicBaseURL: "http://localhost:8000/static",
			Timeout:       30 * time.Second,
			Region:        "us-east-1",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Jobs:    JobsConfig{SessionPurgeSchedule: "@hourly"},
	}
}

// aliases maps bare legacy variable names (lower-cased) to config paths.
var aliases = map[string]string{
	"port":                 "server.port",
	"cors_origin":          "server.cors_origin",
	"database_path":        "database.path",
	"access_token_secret":  "auth.access_token_secret",
	"access_token_expiry":  "auth.access_token_expiry",
	"refresh_token_secret": "auth.refresh_token_secret",
	"refresh_token_expiry": "auth.refresh_token_expiry",
	"cookie_domain":        "auth.cookie_domain",
}

var sections = map[string]bool{
	"server": true, "database": true, "auth": true,
	"assets": true, "logging": true, "jobs": true,
}

// envTransform maps an environment variable name to a config path, or ""
// to ignore the variable.
func envTransform(key string) string {
	lower := strings.ToLower(key)
	if path, ok := aliases[lower]; ok {
		return path
	}
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}
	section, rest, ok := strings.Cut(strings.TrimPrefix(lower, strings.ToLower(envPrefix)), "_")
	if !ok || !sections[section] || rest == "" {
		return ""
	}
	return section + "." + rest
}

// Load builds the configuration from all layers and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		errs = append(errs, errors.New("server.api_prefix must start with /"))
	}
	if len(c.Auth.AccessTokenSecret) < 16 {
		errs = append(errs, errors.New("auth.access_token_secret must be at least 16 characters"))
	}
	if len(c.Auth.RefreshTokenSecret) < 16 {
		errs = append(errs, errors.New("auth.refresh_token_secret must be at least 16 characters"))
	}
	if c.Auth.AccessTokenSecret != "" && c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		errs = append(errs, errors.New("auth access and refresh secrets must differ"))
	}
	if c.Auth.AccessTokenExpiry <= 0 || c.Auth.RefreshTokenExpiry <= c.Auth.AccessTokenExpiry {
		errs = append(errs, errors.New("auth expiries must be positive and refresh must outlive access"))
	}

	switch c.Assets.Driver {
	case "local":
		if c.Assets.LocalDir == "" {
			errs = append(errs, errors.New("assets.local_dir is required for the local driver"))
		}
	case "s3":
		if c.Assets.Bucket == "" {
			errs = append(errs, errors.New("assets.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("assets.driver %q must be local or s3", c.Assets.Driver))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}
