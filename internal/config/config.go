// Package config loads querycraft settings from .querycraft.yaml, the
// environment and .env files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/satishbabariya/querycraft/internal/adapters/dataset"
	"github.com/satishbabariya/querycraft/internal/adapters/telemetry"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem every file-touching command uses.
var AppFs = afero.NewOsFs()

// EnvPrefix prefixes environment overrides: QUERYCRAFT_DATASET_SOURCE.
const EnvPrefix = "QUERYCRAFT"

// Config holds the application configuration
type Config struct {
	Dataset   DatasetConfig
	Preview   PreviewConfig
	Server    ServerConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
	Debug     bool
	// File is the config file that was read, if any.
	File string
}

type DatasetConfig struct {
	Source  string
	Dir     string
	Driver  string
	DSN     string
	MaxRows int
}

type PreviewConfig struct {
	RowCap int
}

type ServerConfig struct {
	Addr string
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type TelemetryConfig struct {
	Type string
}

// Defaults registers the default value of every key.
func Defaults(v *viper.Viper) {
	v.SetDefault("dataset.source", "memory")
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("dataset.driver", "postgres")
	v.SetDefault("dataset.dsn", "")
	v.SetDefault("dataset.max_rows", dataset.DefaultMaxRows)
	v.SetDefault("preview.row_cap", 100)
	v.SetDefault("server.addr", "127.0.0.1:8088")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("telemetry.type", "metrics")
	v.SetDefault("debug", false)
}

// LoadConfig reads configuration. An explicit file must exist; otherwise
// .querycraft.yaml is searched in ., $HOME and $HOME/.config/querycraft.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)
	Defaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(".querycraft")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "querycraft"))
	}

	loadDotEnv()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v), nil
}

// loadDotEnv loads .env and then .env.local, which wins.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Dataset: DatasetConfig{
			Source:  v.GetString("dataset.source"),
			Dir:     v.GetString("dataset.dir"),
			Driver:  v.GetString("dataset.driver"),
			DSN:     v.GetString("dataset.dsn"),
			MaxRows: v.GetInt("dataset.max_rows"),
		},
		Preview:   PreviewConfig{RowCap: v.GetInt("preview.row_cap")},
		Server:    ServerConfig{Addr: v.GetString("server.addr")},
		Cache:     CacheConfig{Size: v.GetInt("cache.size"), TTL: v.GetDuration("cache.ttl")},
		Telemetry: TelemetryConfig{Type: v.GetString("telemetry.type")},
		Debug:     v.GetBool("debug"),
		File:      v.ConfigFileUsed(),
	}
}

// DatasetOptions converts the dataset section for dataset.NewProvider.
func (c *Config) DatasetOptions() dataset.Config {
	return dataset.Config{
		Source:  c.Dataset.Source,
		Dir:     c.Dataset.Dir,
		Driver:  c.Dataset.Driver,
		DSN:     c.Dataset.DSN,
		MaxRows: c.Dataset.MaxRows,
		Fs:      AppFs,
	}
}

// TelemetryOptions converts the telemetry section.
func (c *Config) TelemetryOptions() *telemetry.Config {
	return &telemetry.Config{Type: c.Telemetry.Type, ServiceName: "querycraft"}
}
