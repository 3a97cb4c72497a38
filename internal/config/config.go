// Package config loads mordoo settings from viper, the environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/mordoo/internal/cache"
	"github.com/dgnsrekt/mordoo/internal/favorites"
	"github.com/dgnsrekt/mordoo/internal/kv"
	"github.com/dgnsrekt/mordoo/internal/library"
)

// AppName names the config file and the per-user directories.
const AppName = "mordoo"

// ErrSharedKey is returned when the library and favorites would overwrite
// each other's data.
var ErrSharedKey = errors.New("library.key and favorites.key must differ")

// ErrPrefixOverlap is returned when cache.prefix would claim the library or
// favorites key, letting a cache sweep delete them.
var ErrPrefixOverlap = errors.New("cache.prefix must not be a prefix of library.key or favorites.key")

// Config is the full application configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Library   LibraryConfig   `mapstructure:"library" yaml:"library"`
	Favorites FavoritesConfig `mapstructure:"favorites" yaml:"favorites"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// StorageConfig selects and sizes the key/value backend.
type StorageConfig struct {
	Backend          string `mapstructure:"backend" yaml:"backend" validate:"oneof=memory file sqlite"`
	Dir              string `mapstructure:"dir" yaml:"dir" validate:"required_unless=Backend memory"`
	Quota            int64  `mapstructure:"quota" yaml:"quota" validate:"gte=0"`
	CompressionLevel int    `mapstructure:"compression_level" yaml:"compression_level" validate:"gte=0,lte=22"`
}

type CacheConfig struct {
	Prefix      string `mapstructure:"prefix" yaml:"prefix" validate:"required"`
	SweepOnOpen bool   `mapstructure:"sweep_on_open" yaml:"sweep_on_open"`
}

type LibraryConfig struct {
	Capacity int    `mapstructure:"capacity" yaml:"capacity" validate:"gte=1,lte=10000"`
	Key      string `mapstructure:"key" yaml:"key" validate:"required"`
}

type FavoritesConfig struct {
	Key string `mapstructure:"key" yaml:"key" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Env holds overrides read from the process environment.
type Env struct {
	Debug   bool   `env:"MORDOO_DEBUG"`
	DataDir string `env:"MORDOO_DATA_DIR"`
	LogFile string `env:"MORDOO_LOG_FILE"`
}

// Default returns the built-in configuration. Storage.Dir is left empty
// and resolved by Load.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:          kv.BackendFile,
			Quota:            5 << 20,
			CompressionLevel: 3,
		},
		Cache: CacheConfig{
			Prefix:      cache.DefaultPrefix,
			SweepOnOpen: true,
		},
		Library: LibraryConfig{
			Capacity: library.DefaultCapacity,
			Key:      library.DefaultKey,
		},
		Favorites: FavoritesConfig{
			Key: favorites.DefaultKey,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// SetDefaults registers the defaults with v so they show up in
// v.AllSettings and config file templates.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.quota", d.Storage.Quota)
	v.SetDefault("storage.compression_level", d.Storage.CompressionLevel)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.sweep_on_open", d.Cache.SweepOnOpen)
	v.SetDefault("library.capacity", d.Library.Capacity)
	v.SetDefault("library.key", d.Library.Key)
	v.SetDefault("favorites.key", d.Favorites.Key)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load builds the configuration from v, applies environment overrides,
// expands paths and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	// Storage settings
	if v.IsSet("storage.backend") {
		cfg.Storage.Backend = strings.ToLower(v.GetString("storage.backend"))
	}
	if v.IsSet("storage.dir") {
		cfg.Storage.Dir = v.GetString("storage.dir")
	}
	if v.IsSet("storage.quota") {
		cfg.Storage.Quota = v.GetInt64("storage.quota")
	}
	if v.IsSet("storage.compression_level") {
		cfg.Storage.CompressionLevel = v.GetInt("storage.compression_level")
	}

	// Cache settings
	if v.IsSet("cache.prefix") {
		cfg.Cache.Prefix = v.GetString("cache.prefix")
	}
	if v.IsSet("cache.sweep_on_open") {
		cfg.Cache.SweepOnOpen = v.GetBool("cache.sweep_on_open")
	}

	// Library settings
	if v.IsSet("library.capacity") {
		cfg.Library.Capacity = v.GetInt("library.capacity")
	}
	if v.IsSet("library.key") {
		cfg.Library.Key = v.GetString("library.key")
	}
	if v.IsSet("favorites.key") {
		cfg.Favorites.Key = v.GetString("favorites.key")
	}

	// Logging
	if v.IsSet("log.level") {
		cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	}
	if v.IsSet("log.file") {
		cfg.Log.File = v.GetString("log.file")
	}

	e, err := env.ParseAs[Env]()
	if err != nil {
		return cfg, fmt.Errorf("unable to parse environment: %w", err)
	}
	cfg.applyEnv(e)

	if err := cfg.resolvePaths(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(e Env) {
	if e.Debug {
		c.Log.Level = "debug"
	}
	if e.DataDir != "" {
		c.Storage.Dir = e.DataDir
	}
	if e.LogFile != "" {
		c.Log.File = e.LogFile
	}
}

func (c *Config) resolvePaths() error {
	if c.Storage.Dir == "" && c.Storage.Backend != kv.BackendMemory {
		dir, err := DataDir()
		if err != nil {
			return err
		}
		c.Storage.Dir = dir
	}

	var err error
	if c.Storage.Dir, err = expandPath(c.Storage.Dir); err != nil {
		return fmt.Errorf("unable to expand storage dir: %w", err)
	}
	if c.Log.File, err = expandPath(c.Log.File); err != nil {
		return fmt.Errorf("unable to expand log file: %w", err)
	}
	return nil
}

// KV returns the backend configuration for kv.Open.
func (c Config) KV() kv.Config {
	return kv.Config{
		Backend:          c.Storage.Backend,
		Dir:              c.Storage.Dir,
		Quota:            c.Storage.Quota,
		CompressionLevel: c.Storage.CompressionLevel,
	}
}

// DataDir returns the per-user data directory.
func DataDir() (string, error) {
	dirs, err := gap.NewScope(gap.User, AppName).DataDirs()
	if err != nil || len(dirs) == 0 {
		return "", fmt.Errorf("could not find data directory: %w", err)
	}
	return dirs[0], nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the configuration against its field rules.
func (c Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		return err
	}
	if c.Favorites.Key == c.Library.Key {
		return ErrSharedKey
	}
	if strings.HasPrefix(c.Library.Key, c.Cache.Prefix) || strings.HasPrefix(c.Favorites.Key, c.Cache.Prefix) {
		return ErrPrefixOverlap
	}
	return nil
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("mapstructure")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
