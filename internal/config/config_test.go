package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/coded_studies.xlsx", cfg.Source.Path)
	assert.Equal(t, "study_id", cfg.Source.IDColumn)
	assert.Equal(t, "title", cfg.Source.TitleColumn)
	assert.Equal(t, []string{"publication_year", "evidence_type", "offset_category"}, cfg.Source.ScalarColumns)
	assert.Equal(t, "reference", cfg.Reference.Dir)
	assert.Equal(t, "reference/aliases", cfg.Reference.AliasDir)
	assert.Equal(t, "NAME_0", cfg.Reference.BoundaryFields.Country)
	assert.Equal(t, "ENGTYPE_1", cfg.Reference.BoundaryFields.RegionType)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.True(t, cfg.Output.Workbook)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Empty(t, cfg.Pipeline.Fields)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "curate.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "curation", cfg.Publish.Schema)
	assert.Equal(t, 3, cfg.Publish.RetryAttempts)
	assert.Equal(t, 500, cfg.Publish.RetryBackoffMs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  path: studies.csv
  id_column: id
pipeline:
  fields: [geography, policy]
  concurrency: 2
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "studies.csv", cfg.Source.Path)
	assert.Equal(t, "id", cfg.Source.IDColumn)
	assert.Equal(t, []string{"geography", "policy"}, cfg.Pipeline.Fields)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "title", cfg.Source.TitleColumn)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
output:
  dir: out
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CURATE_OUTPUT_DIR", "elsewhere")
	t.Setenv("CURATE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "elsewhere", cfg.Output.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CURATE_SERVER_PORT", "3000")
	t.Setenv("CURATE_PUBLISH_DATABASE_URL", "postgres://localhost/review")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/review", cfg.Publish.DatabaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Source.Path = "studies.xlsx"
	cfg.Source.IDColumn = "study_id"
	cfg.Source.TitleColumn = "title"
	cfg.Output.Dir = "output"
	cfg.Pipeline.Concurrency = 4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "standardize ok", mode: "standardize"},
		{name: "serve ok", mode: "serve"},
		{name: "publish ok", mode: "publish", mutate: func(c *Config) { c.Publish.DatabaseURL = "postgres://localhost/x" }},
		{name: "missing source", mode: "standardize", mutate: func(c *Config) { c.Source.Path = "" }, wantErr: "source.path is required"},
		{name: "missing join columns", mode: "standardize", mutate: func(c *Config) { c.Source.TitleColumn = "" }, wantErr: "source.title_column"},
		{name: "publish without url", mode: "publish", wantErr: "publish.database_url is required"},
		{name: "invalid port", mode: "serve", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port must be > 0"},
		{name: "concurrency too low", mode: "serve", mutate: func(c *Config) { c.Pipeline.Concurrency = 0 }, wantErr: "pipeline.concurrency must be between 1 and 16"},
		{name: "concurrency too high", mode: "standardize", mutate: func(c *Config) { c.Pipeline.Concurrency = 17 }, wantErr: "pipeline.concurrency"},
		{name: "unknown mode", mode: "unknown", wantErr: "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
