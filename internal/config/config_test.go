package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "http://localhost:5600", cfg.EventStore.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.EventStore.Timeout)
	assert.Equal(t, []string{"aw-watcher-web"}, cfg.Streams.BrowserPrefixes)
	assert.Equal(t, RulesFromEventStore, cfg.Categories.Source)
	assert.Equal(t, 5*time.Minute, cfg.Categories.CacheTTL)
	assert.Equal(t, 10, cfg.Report.TopN)
	assert.Equal(t, []string{"app"}, cfg.Report.GroupBy)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadConfigReadsFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: console
event_store:
  base_url: http://aw.local:5600
  timeout: 3s
categories:
  source: file
  file: rules.yaml
report:
  top_n: 5
  group_by: [category, app]
  bucket: day
  timezone: UTC
  exclude_system_apps: true
`)
	t.Setenv("REPORT_TOP_N", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3*time.Second, cfg.EventStore.Timeout)
	assert.Equal(t, "rules.yaml", cfg.Categories.File)
	assert.Equal(t, []string{"category", "app"}, cfg.Report.GroupBy)
	assert.Equal(t, 7, cfg.Report.TopN)
	assert.True(t, cfg.Report.ExcludeSystemApps)

	loc, err := cfg.Report.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown rule source", "categories:\n  source: ldap\n"},
		{"file source without file", "categories:\n  source: file\n"},
		{"google without credentials", "calendar:\n  provider: google\n"},
		{"bad group key", "report:\n  group_by: [colour]\n"},
		{"bad bucket", "report:\n  bucket: fortnight\n"},
		{"bad timezone", "report:\n  timezone: Mars/Olympus\n"},
		{"bad log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
