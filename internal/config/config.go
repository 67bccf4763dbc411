// Package config loads kllc settings with viper.
//
// Priority, highest first:
//  1. Environment variables (KLLC_ prefix, "." becomes "_", e.g. KLLC_STORE_BACKEND)
//  2. The file named by KLLC_CONFIG_PATH
//  3. .kllc.yaml in the repository root
//  4. kllc/config.yaml in the user config directory
//  5. DefaultConfig
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides
const EnvPrefix = "KLLC"

// RepoConfigFile is the per-repository config file name
const RepoConfigFile = ".kllc.yaml"

// Config is the root configuration
type Config struct {
	// Remote receives pushes and tags
	Remote string `mapstructure:"remote"`
	// BaseBranch is where new cycles branch from when the UI gives none
	BaseBranch string        `mapstructure:"base_branch"`
	Store      StoreConfig   `mapstructure:"store"`
	Log        LogConfig     `mapstructure:"log"`
	Server     ServerConfig  `mapstructure:"server"`
	Channel    ChannelConfig `mapstructure:"channel"`
}

// StoreConfig selects the state backend
type StoreConfig struct {
	// Backend is one of gitref, file, redis or memory
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig configures the log file. An empty File disables file logging.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig configures the HTTP transport
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ChannelConfig configures the intent queue
type ChannelConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Remote:     "origin",
		BaseBranch: "master",
		Store: StoreConfig{
			Backend: "gitref",
			Path:    "kllc/state.json",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "kllc:",
			},
		},
		Server:  ServerConfig{Addr: "127.0.0.1:7878"},
		Channel: ChannelConfig{QueueSize: 16},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("remote", d.Remote)
	v.SetDefault("base_branch", d.BaseBranch)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("channel.queue_size", d.Channel.QueueSize)
}

// Load reads configuration for the repository at repoRoot
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configPath(repoRoot)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configPath returns the first config file that exists, or "" for none
func configPath(repoRoot string) (string, error) {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_PATH"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{}
	if repoRoot != "" {
		candidates = append(candidates, filepath.Join(repoRoot, RepoConfigFile))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "kllc", "config.yaml"))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// Validate checks settings that would otherwise fail later
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case "gitref", "file", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Remote == "" {
		errs = append(errs, errors.New("remote: must not be empty"))
	}
	if c.BaseBranch == "" {
		errs = append(errs, errors.New("base_branch: must not be empty"))
	}
	if c.Channel.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("channel.queue_size: must be positive, got %d", c.Channel.QueueSize))
	}
	return errors.Join(errs...)
}
