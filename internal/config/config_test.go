package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9000"
storage:
  backend: sqlite
  data_dir: /tmp/caprisk
datasource:
  mode: fixture
  timeout: 5s
selection:
  max_ild: 4
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Server.Port)
	assert.Equal(t, filepath.Join("/tmp/caprisk", "runs.db"), c.Storage.DSN)
	assert.Equal(t, 5*time.Second, c.DataSource.Timeout)
	assert.Equal(t, 4, c.Selection.MaxILD)
	assert.Equal(t, 37, c.Selection.MaxScenario)
	assert.Equal(t, 48, c.Generator.Scenarios)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"API_PORT":             "7000",
		"API_ENV":              "production",
		"REDIS_ADDR":           "localhost:6379",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"SELECTION_MAX_ILD":    "3",
	}
	c := Default()
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "7000", c.Server.Port)
	assert.True(t, c.IsProduction())
	assert.Equal(t, "redis", c.Selection.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, 3, c.Selection.MaxILD)
	require.NoError(t, c.Validate())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown storage":   func(c *Config) { c.Storage.Backend = "mongo" },
		"postgres no dsn":   func(c *Config) { c.Storage.Backend = "postgres" },
		"redis no addr":     func(c *Config) { c.Selection.Backend = "redis" },
		"unknown mode":      func(c *Config) { c.DataSource.Mode = "offline" },
		"live no url":       func(c *Config) { c.DataSource.Mode = "live"; c.DataSource.BaseURL = "" },
		"negative cap":      func(c *Config) { c.Selection.MaxILD = -1 },
		"zero timeout":      func(c *Config) { c.DataSource.Timeout = 0 },
		"no plots":          func(c *Config) { c.Generator.Plots = 0 },
		"missing port":      func(c *Config) { c.Server.Port = "" },
		"file without path": func(c *Config) { c.Selection.File = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadUncheckedMissingFile(t *testing.T) {
	_, err := LoadUnchecked(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
