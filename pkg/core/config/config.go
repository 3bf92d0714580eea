package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Engine  EngineConfig  `toml:"engine"`
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// EngineConfig holds interpreter limits and program cache settings
type EngineConfig struct {
	MaxSteps      int      `toml:"max_steps"`
	EvalTimeout   Duration `toml:"eval_timeout"`
	CacheMaxItems int      `toml:"cache_max_items"`
	CacheTTL      Duration `toml:"cache_ttl"`
}

// ServerConfig holds the evaluation service endpoints
type ServerConfig struct {
	Host         string   `toml:"host"`
	GRPCPort     int      `toml:"grpc_port"`
	HTTPPort     int      `toml:"http_port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// StoreConfig holds run history settings
type StoreConfig struct {
	Enabled   bool     `toml:"enabled"`
	Path      string   `toml:"path"`
	Retention Duration `toml:"retention"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the KIN_CONFIG environment variable or
// one of the default locations. Without any file the defaults are used.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("KIN_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/kinematics.toml",
			"./kinematics.toml",
			filepath.Join(os.Getenv("HOME"), ".config/kinematics/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		var cfg Config
		if err := cfg.applyEnvOverrides(); err != nil {
			return nil, err
		}
		cfg.applyDefaults()
		cfg.expandEnvVars()
		return &cfg, nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "kinematics"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Engine
	if c.Engine.MaxSteps == 0 {
		c.Engine.MaxSteps = 1_000_000
	}
	if c.Engine.EvalTimeout.Duration == 0 {
		c.Engine.EvalTimeout.Duration = 10 * time.Second
	}
	if c.Engine.CacheMaxItems == 0 {
		c.Engine.CacheMaxItems = 256
	}
	if c.Engine.CacheTTL.Duration == 0 {
		c.Engine.CacheTTL.Duration = 30 * time.Minute
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9300
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8300
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 60 * time.Second
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "runs.db")
	}
	if c.Store.Retention.Duration == 0 {
		c.Store.Retention.Duration = 30 * 24 * time.Hour
	}
}

// applyEnvOverrides applies KIN_* environment variables on top of the file values
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"KIN_ENVIRONMENT": &c.General.Environment,
		"KIN_DATA_DIR":    &c.General.DataDir,
		"KIN_LOG_LEVEL":   &c.General.LogLevel,
		"KIN_LOG_FORMAT":  &c.General.LogFormat,
		"KIN_HOST":        &c.Server.Host,
		"KIN_STORE_PATH":  &c.Store.Path,
	}
	for env, target := range strs {
		if v, ok := os.LookupEnv(env); ok {
			*target = v
		}
	}

	ints := map[string]*int{
		"KIN_MAX_STEPS": &c.Engine.MaxSteps,
		"KIN_GRPC_PORT": &c.Server.GRPCPort,
		"KIN_HTTP_PORT": &c.Server.HTTPPort,
	}
	for env, target := range ints {
		if v, ok := os.LookupEnv(env); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env, err)
			}
			*target = n
		}
	}

	if v, ok := os.LookupEnv("KIN_EVAL_TIMEOUT"); ok {
		if err := c.Engine.EvalTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid KIN_EVAL_TIMEOUT: %w", err)
		}
	}
	if v, ok := os.LookupEnv("KIN_STORE_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KIN_STORE_ENABLED: %w", err)
		}
		c.Store.Enabled = enabled
	}
	return nil
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// GRPCAddress returns the listen address of the gRPC service
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// HTTPAddress returns the listen address of the HTTP service
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
