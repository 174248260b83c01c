package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

const testConfig = `
default: local
log_level: info
profiles:
  local:
    driver: sqlite
    dsn: ./local.db
    log_queries: true
  prod:
    driver: postgres
    dsn: postgres://app:secret@db/app
    auto_quote: true
`

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Profiles)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()
	_, err := loadConfig(writeConfig(t, "profiles: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestResolveDefaultProfile(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	s, err := (&rootOptions{}).resolve(cfg, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Driver)
	assert.Equal(t, "./local.db", s.DSN)
	assert.True(t, s.LogQueries)
	assert.Equal(t, slog.LevelInfo, s.logLevel)
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()
	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	s, err := (&rootOptions{profile: "prod"}).resolve(cfg, env(map[string]string{"DATABASE_URL": "postgres://env/app"}))
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.Driver)
	assert.Equal(t, "postgres://env/app", s.DSN)
	assert.True(t, s.AutoQuote)

	s, err = (&rootOptions{profile: "prod", driver: "mysql", dsn: "flag-dsn", verbose: true}).resolve(cfg,
		env(map[string]string{"SQLEXPR_DRIVER": "sqlite", "DATABASE_URL": "env-dsn"}))
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Driver)
	assert.Equal(t, "flag-dsn", s.DSN)
	assert.True(t, s.LogQueries)
	assert.Equal(t, slog.LevelDebug, s.logLevel)
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()
	s, err := (&rootOptions{}).resolve(&Config{}, env(map[string]string{"SQLEXPR_DRIVER": " mysql "}))
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Driver)
	assert.Empty(t, s.DSN)
	assert.Equal(t, slog.LevelWarn, s.logLevel)

	s, err = (&rootOptions{}).resolve(&Config{}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.Driver)
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	_, err := (&rootOptions{profile: "staging"}).resolve(&Config{}, env(nil))
	assert.EqualError(t, err, `unknown profile "staging"`)

	_, err = (&rootOptions{}).resolve(&Config{LogLevel: "loud"}, env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
