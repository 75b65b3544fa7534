package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine names accepted in search.engine.
const (
	EngineRedis  = "redis"
	EngineMemory = "memory"
)

// Config holds the extdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Registry RegistryConfig `yaml:"registry"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search engine connection settings. Only used
// when search.engine is "redis".
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RegistryConfig holds the extension registry database settings.
type RegistryConfig struct {
	DSN string `yaml:"dsn"`
}

// SearchConfig holds search backend and index maintenance settings.
type SearchConfig struct {
	Engine         string          `yaml:"engine"`         // redis, memory (default: memory)
	ClearOnStart   bool            `yaml:"clear_on_start"` // recreate the index on startup
	RebuildHourUTC *int            `yaml:"rebuild_hour_utc"`
	Relevance      RelevanceConfig `yaml:"relevance"`
}

// RelevanceConfig holds scoring weights. Nil fields take defaults, so
// an explicit zero (disabling a component) survives loading.
type RelevanceConfig struct {
	Rating     *float64 `yaml:"rating"`
	Downloads  *float64 `yaml:"downloads"`
	Timestamp  *float64 `yaml:"timestamp"`
	Unverified *float64 `yaml:"unverified"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Registry.DSN == "" {
		c.Registry.DSN = "extdex.db"
	}
	if c.Search.Engine == "" {
		c.Search.Engine = EngineMemory
	}
	if c.Search.RebuildHourUTC == nil {
		c.Search.RebuildHourUTC = intPtr(4)
	}
	if c.Search.Relevance.Rating == nil {
		c.Search.Relevance.Rating = floatPtr(1)
	}
	if c.Search.Relevance.Downloads == nil {
		c.Search.Relevance.Downloads = floatPtr(1)
	}
	if c.Search.Relevance.Timestamp == nil {
		c.Search.Relevance.Timestamp = floatPtr(1)
	}
	if c.Search.Relevance.Unverified == nil {
		c.Search.Relevance.Unverified = floatPtr(0.5)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Search.Engine {
	case EngineRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required when search.engine is %q", EngineRedis)
		}
	case EngineMemory:
		// no engine connection needed
	default:
		return fmt.Errorf("search.engine must be %q or %q, got %q", EngineRedis, EngineMemory, c.Search.Engine)
	}
	if h := *c.Search.RebuildHourUTC; h < 0 || h > 23 {
		return fmt.Errorf("search.rebuild_hour_utc must be between 0 and 23, got %d", h)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
