package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("OPENART_AUTH_ACCESS_TOKEN_SECRET", "access-secret-0123456789")
	t.Setenv("OPENART_AUTH_REFRESH_TOKEN_SECRET", "refresh-secret-0123456789")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "/openart/api", cfg.Server.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, "local", cfg.Assets.Driver)
	assert.Equal(t, "@hourly", cfg.Jobs.SessionPurgeSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)
	t.Setenv("OPENART_SERVER_PORT", "9100")
	t.Setenv("OPENART_AUTH_ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("OPENART_ASSETS_USE_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.True(t, cfg.Assets.UsePathStyle)
}

func TestLoad_LegacyAliases(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8123")
	t.Setenv("CORS_ORIGIN", "https://openart.example")
	t.Setenv("ACCESS_TOKEN_SECRET", "legacy-access-secret-xx")
	t.Setenv("REFRESH_TOKEN_SECRET", "legacy-refresh-secret-xx")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "https://openart.example", cfg.Server.CORSOrigin)
	assert.Equal(t, "legacy-access-secret-xx", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, 48*time.Hour, cfg.Auth.RefreshTokenExpiry)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setSecrets(t)

	path := filepath.Join(dir, "openart.yaml")
	body := "server:\n  port: 7000\nassets:\n  driver: s3\n  bucket: media\n  region: eu-west-1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Assets.Driver)
	assert.Equal(t, "media", cfg.Assets.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Assets.Region)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setSecrets(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("server:\n  port: 7000\n"), 0o600))
	t.Setenv("OPENART_SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token_secret")
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OPENART_SERVER_PORT", "server.port"},
		{"OPENART_AUTH_COOKIE_DOMAIN", "auth.cookie_domain"},
		{"COOKIE_DOMAIN", "auth.cookie_domain"},
		{"DATABASE_PATH", "database.path"},
		{"OPENART_CONFIG", ""},
		{"OPENART_UNKNOWN_KEY", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransform(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Defaults()
		c.Auth.AccessTokenSecret = "access-secret-0123456789"
		c.Auth.RefreshTokenSecret = "refresh-secret-0123456789"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Auth.AccessTokenSecret = "short" }, "access_token_secret"},
		{"same secrets", func(c *Config) { c.Auth.RefreshTokenSecret = c.Auth.AccessTokenSecret }, "must differ"},
		{"bad driver", func(c *Config) { c.Assets.Driver = "ftp" }, "assets.driver"},
		{"s3 without bucket", func(c *Config) { c.Assets.Driver = "s3" }, "assets.bucket"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"refresh shorter than access", func(c *Config) { c.Auth.RefreshTokenExpiry = time.Minute }, "expiries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
