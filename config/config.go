// Package config loads paperd's configuration: built-in defaults, then an
// optional TOML file, then PAPERD_* environment variables. Command-line flags
// are applied by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"xdao.co/paperledger/model"
)

type Config struct {
	Listen       string         `env:"PAPERD_LISTEN"`
	DBPath       string         `env:"PAPERD_DB"`
	ContentDirs  []string       `env:"PAPERD_CONTENT_DIRS" envSeparator:","`
	Admin        model.Identity `env:"PAPERD_ADMIN"`
	MaxClockSkew time.Duration  `env:"PAPERD_MAX_CLOCK_SKEW"`
	MaxMsgBytes  int            `env:"PAPERD_MAX_MSG_BYTES"`
	LogLevel     string         `env:"PAPERD_LOG_LEVEL"`
}

func Default() Config {
	return Config{
		Listen:       "127.0.0.1:7450",
		DBPath:       "paperledger.db",
		ContentDirs:  []string{"content"},
		MaxClockSkew: 2 * time.Minute,
		MaxMsgBytes:  64 << 20,
		LogLevel:     "info",
	}
}

type fileConfig struct {
	Listen       string   `toml:"listen"`
	DBPath       string   `toml:"db"`
	ContentDirs  []string `toml:"content_dirs"`
	Admin        string   `toml:"admin"`
	MaxClockSkew string   `toml:"max_clock_skew"`
	MaxMsgBytes  int      `toml:"max_msg_bytes"`
	LogLevel     string   `toml:"log_level"`
}

// LoadFile overlays the keys present in the TOML file at path onto cfg.
func LoadFile(cfg Config, path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("db") {
		cfg.DBPath = strings.TrimSpace(raw.DBPath)
	}
	if meta.IsDefined("content_dirs") {
		cfg.ContentDirs = normalizeDirs(raw.ContentDirs)
	}
	if meta.IsDefined("admin") {
		cfg.Admin = model.Identity(strings.TrimSpace(raw.Admin))
	}
	if meta.IsDefined("max_clock_skew") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MaxClockSkew))
		if err != nil {
			return Config{}, fmt.Errorf("parse max_clock_skew: %w", err)
		}
		cfg.MaxClockSkew = d
	}
	if meta.IsDefined("max_msg_bytes") {
		cfg.MaxMsgBytes = raw.MaxMsgBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}

// ApplyEnv overlays set PAPERD_* variables onto cfg. Unset variables leave
// the current values alone.
func ApplyEnv(cfg Config) (Config, error) {
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ContentDirs = normalizeDirs(cfg.ContentDirs)
	return cfg, nil
}

// ApplyEnvFrom is ApplyEnv reading from vars instead of the process
// environment.
func ApplyEnvFrom(cfg Config, vars map[string]string) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ContentDirs = normalizeDirs(cfg.ContentDirs)
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if len(c.ContentDirs) == 0 {
		errs = append(errs, errors.New("at least one content dir is required"))
	}
	if c.Admin.IsZero() {
		errs = append(errs, errors.New("admin identity is required"))
	}
	if c.MaxClockSkew <= 0 {
		errs = append(errs, errors.New("max clock skew must be positive"))
	}
	if c.MaxMsgBytes < 0 {
		errs = append(errs, errors.New("max msg bytes must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseDirs splits a comma-separated directory list, dropping blank entries.
func ParseDirs(s string) []string {
	return normalizeDirs(strings.Split(s, ","))
}

func normalizeDirs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
