package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "osinfo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9550", cfg.Listen)
	assert.Equal(t, ":9551", cfg.HTTPListen)
	assert.True(t, cfg.EnableSwagger)
	assert.Equal(t, "osinfo.db", cfg.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.PurgeInterval)
	assert.Equal(t, 60*time.Second, cfg.CommandTimeout)
	assert.Equal(t, time.Hour, cfg.PushInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":19550"
database: /var/lib/osinfo/osinfo.db
retention_days: 30
purge_interval: 6h
api_secret: s3cret
server: http://collector.internal:9551
push_interval: 15m
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":19550", cfg.Listen)
	assert.Equal(t, "/var/lib/osinfo/osinfo.db", cfg.DatabasePath)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 6*time.Hour, cfg.PurgeInterval)
	assert.Equal(t, "s3cret", cfg.ApiSecret)
	assert.Equal(t, "http://collector.internal:9551", cfg.Server)
	assert.Equal(t, 15*time.Minute, cfg.PushInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "retention_days: 30\n")
	t.Setenv("OSINFO_RETENTION_DAYS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RetentionDays)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"negative retention": "retention_days: -1\n",
		"bad server url":     "server: not a url\n",
		"short purge":        "purge_interval: 1s\n",
		"unknown log level":  "log_level: loud\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	cfg.DatabasePath = ""
	require.Error(t, cfg.Validate())
}
