package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-reviews/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv() []string { return nil }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.Options{Environment: "test", Environ: noEnv})
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, "sqlite", cfg.Persistence.Driver)
	assert.Equal(t, "auth", cfg.Auth.CookieName)
	assert.Equal(t, 10, cfg.Content.PageSize)
	assert.Equal(t, "test", cfg.Environment)
	assert.True(t, cfg.UsesInsecureSigningKey())
}

func TestLoadFileSections(t *testing.T) {
	path := writeFile(t, `
default:
  server:
    address: ":4000"
  logging:
    level: warn
production:
  server:
    address: ":8080"
  auth:
    signing_key: production-key
    uniform_login_errors: true
`)

	cfg, err := config.Load(config.Options{File: path, Environment: "development", Environ: noEnv})
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Auth.UniformLoginErrors)

	cfg, err = config.Load(config.Options{File: path, Environment: "production", Environ: noEnv})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Auth.UniformLoginErrors)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := config.Load(config.Options{
		File:    filepath.Join(t.TempDir(), "missing.yml"),
		Environ: noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Address)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
default:
  auth:
    signing_key: from-file
`)

	cfg, err := config.Load(config.Options{
		File: path,
		Environ: func() []string {
			return []string{
				"REVIEWS_AUTH__SIGNING_KEY=from-env",
				"REVIEWS_PERSISTENCE__DSN=file::memory:",
				"OTHER_VALUE=ignored",
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.SigningKey)
	assert.Equal(t, "file::memory:", cfg.Persistence.DSN)
	assert.False(t, cfg.UsesInsecureSigningKey())
}

func TestLoadFlagsAndOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--server.address", ":9999", "--env", "staging"}))

	cfg, err := config.Load(config.Options{
		Flags:   fs,
		Environ: noEnv,
		Overrides: map[string]any{
			"content.page_size": 5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 5, cfg.Content.PageSize)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad driver", func(c *config.Config) { c.Persistence.Driver = "mysql" }},
		{"empty dsn", func(c *config.Config) { c.Persistence.DSN = "" }},
		{"empty signing key", func(c *config.Config) { c.Auth.SigningKey = "" }},
		{"negative page size", func(c *config.Config) { c.Content.PageSize = -1 }},
		{"production with development key", func(c *config.Config) { c.Environment = "production" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, config.Defaults().Validate())

	cfg := config.Defaults()
	cfg.Environment = "production"
	cfg.Auth.SigningKey = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoadProductionRequiresSigningKey(t *testing.T) {
	_, err := config.Load(config.Options{Environment: "production", Environ: noEnv})
	assert.Error(t, err)

	cfg, err := config.Load(config.Options{
		Environment: "production",
		Environ: func() []string {
			return []string{"REVIEWS_AUTH__SIGNING_KEY=from-env"}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
