package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName is used for the config, data and keyring directories
const AppName = "lazycirc"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	UI      UIConfig      `mapstructure:"ui"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Library        string `mapstructure:"library"`
	Username       string `mapstructure:"username"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	PageSize       int    `mapstructure:"page_size"`
}

// Timeout returns the request timeout as a duration
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type SearchConfig struct {
	Backend           string `mapstructure:"backend"`
	DefaultCombinator string `mapstructure:"default_combinator"`
	CacheSize         int    `mapstructure:"cache_size"`
}

type CatalogConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
}

type HistoryConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
	Persist    bool `mapstructure:"persist"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Search backends
const (
	BackendOPDS    = "opds"
	BackendCatalog = "catalog"
)

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:6500",
			Library:        "default",
			TimeoutSeconds: 30,
			PageSize:       50,
		},
		Search: SearchConfig{
			Backend:           BackendOPDS,
			DefaultCombinator: "and",
			CacheSize:         128,
		},
		Catalog: CatalogConfig{
			Table:    "works",
			MaxConns: 4,
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
			Persist:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.library", d.Server.Library)
	v.SetDefault("server.username", d.Server.Username)
	v.SetDefault("server.timeout_seconds", d.Server.TimeoutSeconds)
	v.SetDefault("server.page_size", d.Server.PageSize)
	v.SetDefault("search.backend", d.Search.Backend)
	v.SetDefault("search.default_combinator", d.Search.DefaultCombinator)
	v.SetDefault("search.cache_size", d.Search.CacheSize)
	v.SetDefault("catalog.dsn", d.Catalog.DSN)
	v.SetDefault("catalog.table", d.Catalog.Table)
	v.SetDefault("catalog.max_conns", d.Catalog.MaxConns)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("history.persist", d.History.Persist)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// Load loads configuration from the standard locations. A missing config
// file is fine; defaults apply.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the standard locations
// when path is empty. Environment variables prefixed LAZYCIRC_ override
// file values (LAZYCIRC_SERVER_BASE_URL etc).
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if dir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(dir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later and far away
func (c *Config) Validate() error {
	switch c.Search.Backend {
	case BackendOPDS, BackendCatalog:
	default:
		return fmt.Errorf("invalid search.backend %q: expected %s or %s", c.Search.Backend, BackendOPDS, BackendCatalog)
	}
	switch c.Search.DefaultCombinator {
	case "and", "or":
	default:
		return fmt.Errorf("invalid search.default_combinator %q", c.Search.DefaultCombinator)
	}
	if c.Server.PageSize <= 0 {
		return fmt.Errorf("invalid server.page_size %d", c.Server.PageSize)
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
