package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Selection  SelectionConfig  `yaml:"selection"`
	DataSource DataSourceConfig `yaml:"datasource"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// Env is "development" or "production"; production hides error details.
	Env            string   `yaml:"env"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	// Backend is csv, sqlite, postgres or mysql.
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
	// DSN is required for the SQL backends. For sqlite a relative path is
	// resolved under DataDir.
	DSN string `yaml:"dsn"`
}

type SelectionConfig struct {
	// Backend is file, memory or redis.
	Backend      string `yaml:"backend"`
	File         string `yaml:"file"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisDB      int    `yaml:"redis_db"`
	RedisPrefix  string `yaml:"redis_prefix"`
	RedisChannel string `yaml:"redis_channel"`
	MaxILD       int    `yaml:"max_ild"`
	MaxScenario  int    `yaml:"max_scenario"`
}

type DataSourceConfig struct {
	// Mode is live, fixture or fallback.
	Mode          string        `yaml:"mode"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	ReferenceFile string        `yaml:"reference_file"`
}

type GeneratorConfig struct {
	Plots       int `yaml:"plots"`
	Scenarios   int `yaml:"scenarios"`
	HistorySize int `yaml:"history_size"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns a configuration that runs locally with no external services.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			StaticDir:      "./frontend/dist",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			Backend: "csv",
			DataDir: "./data",
		},
		Selection: SelectionConfig{
			Backend:      "file",
			File:         "./data/selections.json",
			RedisPrefix:  "caprisk:",
			RedisChannel: "caprisk:selections",
			MaxILD:       9,
			MaxScenario:  37,
		},
		DataSource: DataSourceConfig{
			Mode:     "fallback",
			BaseURL:  "http://localhost:8080/api",
			Timeout:  30 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Generator: GeneratorConfig{
			Plots:       9,
			Scenarios:   48,
			HistorySize: 20,
		},
		Log: LogConfig{Mode: "development"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	c.resolvePaths()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config over the defaults, but does not
// apply the environment or validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overlays the supported environment variables. getenv is
// os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Port, "API_PORT")
	set(&c.Server.Env, "API_ENV")
	set(&c.Server.StaticDir, "STATIC_DIR")
	set(&c.Storage.DataDir, "DATA_DIR")
	set(&c.Storage.Backend, "STORAGE_BACKEND")
	set(&c.Storage.DSN, "STORAGE_DSN")
	set(&c.DataSource.Mode, "DATASOURCE_MODE")
	set(&c.DataSource.BaseURL, "DATASOURCE_URL")
	set(&c.Log.Mode, "LOG_MODE")
	if v := strings.TrimSpace(getenv("REDIS_ADDR")); v != "" {
		c.Selection.RedisAddr = v
		c.Selection.Backend = "redis"
	}
	if v := strings.TrimSpace(getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(getenv("SELECTION_MAX_ILD"))); err == nil {
		c.Selection.MaxILD = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(getenv("SELECTION_MAX_SCENARIO"))); err == nil {
		c.Selection.MaxScenario = v
	}
}

// resolvePaths places a relative sqlite DSN under the data dir.
func (c *Config) resolvePaths() {
	if c.Storage.Backend == "sqlite" && c.Storage.DSN == "" {
		c.Storage.DSN = filepath.Join(c.Storage.DataDir, "runs.db")
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch c.Storage.Backend {
	case "csv":
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir is required for the csv backend")
		}
	case "sqlite", "postgres", "mysql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage.backend %q must be csv, sqlite, postgres or mysql", c.Storage.Backend)
	}
	switch c.Selection.Backend {
	case "memory":
	case "file":
		if c.Selection.File == "" {
			return errors.New("selection.file is required for the file backend")
		}
	case "redis":
		if c.Selection.RedisAddr == "" {
			return errors.New("selection.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("selection.backend %q must be file, memory or redis", c.Selection.Backend)
	}
	if c.Selection.MaxILD < 0 || c.Selection.MaxScenario < 0 {
		return errors.New("selection limits must not be negative")
	}
	switch c.DataSource.Mode {
	case "live", "fallback":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("datasource.base_url is required in %s mode", c.DataSource.Mode)
		}
	case "fixture":
	default:
		return fmt.Errorf("datasource.mode %q must be live, fixture or fallback", c.DataSource.Mode)
	}
	if c.DataSource.Timeout <= 0 {
		return errors.New("datasource.timeout must be positive")
	}
	if c.Generator.Plots <= 0 || c.Generator.Scenarios <= 0 {
		return errors.New("generator.plots and generator.scenarios must be positive")
	}
	return nil
}

// IsProduction reports whether error details should be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
