// Package config loads flowlens settings from a TOML file and the
// environment.
//
// The file lives at $XDG_CONFIG_HOME/flowlens/config.toml (falling back to
// ~/.config/flowlens/config.toml). Every field is optional:
//
//	[server]
//	addr = ":4000"
//	static = "./web/dist"
//	connect_rate = 5
//	connect_burst = 10
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//	database = "flows"
//	timeout = "10s"
//
//	[layout]
//	strategy = "layered"
//	direction = "LR"
//
//	[session]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[cache]
//	backend = "file"
//
// FLOWLENS_MONGO_URI, FLOWLENS_DB_NAME and FLOWLENS_REDIS_ADDR override the
// file. Command-line flags override both and are applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/session"
)

const appName = "flowlens"

// Environment overrides.
const (
	EnvMongoURI  = "FLOWLENS_MONGO_URI"
	EnvDBName    = "FLOWLENS_DB_NAME"
	EnvRedisAddr = "FLOWLENS_REDIS_ADDR"
)

// Backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNull   = "null"
)

// Config is the complete configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Mongo   MongoConfig   `toml:"mongo"`
	Layout  LayoutConfig  `toml:"layout"`
	Session SessionConfig `toml:"session"`
	Cache   CacheConfig   `toml:"cache"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Static is the directory of the built UI bundle. Empty disables it.
	Static string `toml:"static"`
	// ConnectRate and ConnectBurst limit database dials per second across
	// all clients. Zero uses the server defaults.
	ConnectRate  float64 `toml:"connect_rate"`
	ConnectBurst int     `toml:"connect_burst"`
}

// MongoConfig is the default connection used by the CLI.
type MongoConfig struct {
	URI      string   `toml:"uri"`
	Database string   `toml:"database"`
	Timeout  Duration `toml:"timeout"`
}

// LayoutConfig holds layout defaults. Zero spacing values keep the engine
// defaults.
type LayoutConfig struct {
	Strategy  string  `toml:"strategy"`
	Direction string  `toml:"direction"`
	NodeSep   float64 `toml:"node_sep"`
	RankSep   float64 `toml:"rank_sep"`
	Spacing   float64 `toml:"spacing"`
	Sweeps    int     `toml:"sweeps"`
}

// SessionConfig selects where sessions are persisted.
type SessionConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`
}

// CacheConfig selects the pipeline cache.
type CacheConfig struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":4000"},
		Mongo:  MongoConfig{Timeout: Duration{10 * time.Second}},
		Layout: LayoutConfig{
			Strategy:  "layered",
			Direction: string(layout.LR),
		},
		Session: SessionConfig{
			Backend: BackendFile,
			TTL:     Duration{session.DefaultTTL},
		},
		Cache: CacheConfig{Backend: BackendFile},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path and applies environment overrides.
// An empty path means DefaultPath, which may be absent; an explicit path
// must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(string(data)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, err
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeMalformedInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeMalformedInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides. A Redis address from the
// environment also applies to the session store and the cache.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvMongoURI); v != "" {
		c.Mongo.URI = v
	}
	if v := getenv(EnvDBName); v != "" {
		c.Mongo.Database = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Session.RedisAddr = v
		c.Cache.RedisAddr = v
	}
}

// Validate checks backends and layout defaults.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendMemory}, c.Session.Backend) {
		return errors.New(errors.ErrCodeMalformedInput, "session backend %q (want file, redis or memory)", c.Session.Backend)
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNull}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeMalformedInput, "cache backend %q (want file, redis or null)", c.Cache.Backend)
	}
	if c.Session.Backend == BackendRedis && c.Session.RedisAddr == "" {
		return errors.New(errors.ErrCodeMalformedInput, "session backend redis needs redis_addr")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeMalformedInput, "cache backend redis needs redis_addr")
	}
	if c.Server.ConnectRate < 0 || c.Server.ConnectBurst < 0 {
		return errors.New(errors.ErrCodeMalformedInput, "connect_rate and connect_burst must not be negative")
	}
	if _, err := layout.ParseStrategy(c.Layout.Strategy); err != nil {
		return err
	}
	if _, err := layout.ParseDirection(c.Layout.Direction); err != nil {
		return err
	}
	return nil
}

// Options returns the engine geometry for the configured spacing.
func (l LayoutConfig) Options() layout.Options {
	return layout.Options{
		NodeSep: l.NodeSep,
		RankSep: l.RankSep,
		Spacing: l.Spacing,
		Sweeps:  l.Sweeps,
	}
}
