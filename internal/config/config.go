// Package config loads pokedex settings from flags, POKEDEX_* environment
// variables and an optional pokedex.{yaml,json,toml} file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dukerupert/pokedex/internal/pokeapi"
)

const EnvPrefix = "POKEDEX"

// Keys.
const (
	KeyDB             = "db"
	KeyPort           = "port"
	KeyAPIBaseURL     = "api_base_url"
	KeyHTTPTimeout    = "http_timeout"
	KeyPageSize       = "page_size"
	KeyProbeInterval  = "probe_interval"
	KeyStaleAfter     = "stale_after"
	KeyLogLevel       = "log_level"
	KeyOffline        = "offline"
	KeyFormat         = "format"
	KeyAllowedOrigins = "allowed_origins"
	KeySyncLimit      = "sync_limit"
)

type Config struct {
	DB             string
	Port           string
	APIBaseURL     string
	HTTPTimeout    time.Duration
	PageSize       int
	ProbeInterval  time.Duration
	StaleAfter     time.Duration
	LogLevel       string
	Offline        bool
	Format         string
	AllowedOrigins []string
	SyncLimit      int
}

// New returns a viper instance with defaults, environment binding and config
// file discovery set up. POKEDEX_CONFIG names an explicit config file;
// otherwise pokedex.* is looked up in ".", "$HOME/.pokedex" and
// "/etc/pokedex".
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDB, "pokedex.db")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyAPIBaseURL, pokeapi.DefaultBaseURL)
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyPageSize, 20)
	v.SetDefault(KeyProbeInterval, 15*time.Second)
	v.SetDefault(KeyStaleAfter, 24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOffline, false)
	v.SetDefault(KeyFormat, "json")
	v.SetDefault(KeyAllowedOrigins, []string{"*"})
	v.SetDefault(KeySyncLimit, 6)

	if file := os.Getenv(EnvPrefix + "_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pokedex")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pokedex")
		v.AddConfigPath("/etc/pokedex")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name, with dashes turned into
// underscores, is a config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKey(key) {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func isKey(key string) bool {
	switch key {
	case KeyDB, KeyPort, KeyAPIBaseURL, KeyHTTPTimeout, KeyPageSize, KeyProbeInterval,
		KeyStaleAfter, KeyLogLevel, KeyOffline, KeyFormat, KeyAllowedOrigins, KeySyncLimit:
		return true
	}
	return false
}

// Load reads the config file, if any, and returns the validated settings.
// A missing config file is not an error unless POKEDEX_CONFIG named it.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DB:             v.GetString(KeyDB),
		Port:           v.GetString(KeyPort),
		APIBaseURL:     v.GetString(KeyAPIBaseURL),
		HTTPTimeout:    v.GetDuration(KeyHTTPTimeout),
		PageSize:       v.GetInt(KeyPageSize),
		ProbeInterval:  v.GetDuration(KeyProbeInterval),
		StaleAfter:     v.GetDuration(KeyStaleAfter),
		LogLevel:       v.GetString(KeyLogLevel),
		Offline:        v.GetBool(KeyOffline),
		Format:         strings.ToLower(v.GetString(KeyFormat)),
		AllowedOrigins: v.GetStringSlice(KeyAllowedOrigins),
		SyncLimit:      v.GetInt(KeySyncLimit),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB) == "" {
		errs = append(errs, errors.New("db must not be empty"))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("port %q is not a valid TCP port", c.Port))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page_size must be positive"))
	}
	if c.ProbeInterval <= 0 {
		errs = append(errs, errors.New("probe_interval must be positive"))
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, errors.New("stale_after must be positive"))
	}
	if c.SyncLimit <= 0 {
		errs = append(errs, errors.New("sync_limit must be positive"))
	}
	if c.Format != "json" && c.Format != "yaml" {
		errs = append(errs, fmt.Errorf("format %q must be json or yaml", c.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
