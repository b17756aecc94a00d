// Package config loads settings from the .compound file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/compound/pkg/remote"
)

// EnvConfigPath names a directory searched first for the config file.
const EnvConfigPath = "COMPOUND_CONFIG_PATH"

// Config is the resolved configuration.
type Config struct {
	Path   string        `json:"path"`
	Remote remote.Config `json:"remote"`
	Log    Log           `json:"log"`
	Sync   Sync          `json:"sync"`
	// File is the config file that was read, if any.
	File string `json:"file,omitempty"`
}

type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Sync struct {
	// Schedule is the daemon's cron spec.
	Schedule string `json:"schedule"`
	// Wait bounds how long a deposit waits for its upload.
	Wait time.Duration `json:"wait"`
}

// BasePath returns the local store directory.
func (c *Config) BasePath() string {
	return c.Path
}

// Load reads the config file, if one exists, and the environment.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("path", "~/.compound.db")
	v.SetDefault("remote.driver", "")
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.key", "")
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.table", remote.DefaultTable)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("sync.schedule", "@every 15m")
	v.SetDefault("sync.wait", "10s")

	v.SetConfigName(".compound") // .yaml is implicit
	v.SetEnvPrefix("COMPOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv(EnvConfigPath); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("config: expanding path: %w", err)
	}

	cfg := &Config{
		Path: path,
		Remote: remote.Config{
			Driver: strings.ToLower(v.GetString("remote.driver")),
			URL:    v.GetString("remote.url"),
			Key:    v.GetString("remote.key"),
			DSN:    v.GetString("remote.dsn"),
			Table:  v.GetString("remote.table"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Sync: Sync{
			Schedule: v.GetString("sync.schedule"),
			Wait:     v.GetDuration("sync.wait"),
		},
		File: v.ConfigFileUsed(),
	}
	// The web client's variable names work too.
	if cfg.Remote.URL == "" {
		cfg.Remote.URL = os.Getenv("SUPABASE_URL")
	}
	if cfg.Remote.Key == "" {
		cfg.Remote.Key = os.Getenv("SUPABASE_ANON_KEY")
	}
	// Supabase settings alone are enough to turn the cloud on.
	if cfg.Remote.Driver == "" && cfg.Remote.URL != "" && cfg.Remote.Key != "" {
		cfg.Remote.Driver = remote.DriverSupabase
	}
	if cfg.Remote.Driver == remote.DriverSQLite || cfg.Remote.Driver == "sqlite3" {
		if cfg.Remote.DSN, err = homedir.Expand(cfg.Remote.DSN); err != nil {
			return nil, fmt.Errorf("config: expanding dsn: %w", err)
		}
	}
	return cfg, nil
}
