// Package config loads spy-spotify settings from a TOML file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.toml"

// Environment variables that override the file.
const (
	EnvSpotifyID     = "SPOTIFY_ID"
	EnvSpotifySecret = "SPOTIFY_SECRET"
	EnvLastFMAPIKey  = "LASTFM_API_KEY"
	EnvLogLevel      = "SPY_LOG_LEVEL"
)

// Fallback backends.
const (
	BackendAuto   = ""
	BackendLastFM = "lastfm"
	BackendDeezer = "deezer"
)

// ErrUnknownBackend is returned for an unsupported [fallback] backend.
var ErrUnknownBackend = errors.New("unknown fallback backend")

// Config represents the application configuration.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Fallback FallbackConfig `toml:"fallback"`
	Resolver ResolverConfig `toml:"resolver"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenCache   string `toml:"token_cache"`
}

// Enabled reports whether both client id and secret are set.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LastFMConfig contains the Last.fm API key.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// FallbackConfig selects the fallback provider.
type FallbackConfig struct {
	Backend string `toml:"backend"`
}

// ResolverConfig bounds a single resolution.
type ResolverConfig struct {
	Timeout duration `toml:"timeout"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// duration decodes TOML strings such as "15s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration in the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load reads the TOML file at path over the defaults, loads .env if present,
// then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Spotify.ClientID, EnvSpotifyID)
	override(&c.Spotify.ClientSecret, EnvSpotifySecret)
	override(&c.LastFM.APIKey, EnvLastFMAPIKey)
	override(&c.Log.Level, EnvLogLevel)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Fallback.Backend {
	case BackendAuto, BackendLastFM, BackendDeezer:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Fallback.Backend)
	}
	if c.Resolver.Timeout.Duration <= 0 {
		return fmt.Errorf("resolver timeout must be positive, got %s", c.Resolver.Timeout.Duration)
	}
	return nil
}

// FallbackBackend resolves the auto backend: Last.fm when an API key is set,
// Deezer otherwise.
func (c *Config) FallbackBackend() string {
	if c.Fallback.Backend != BackendAuto {
		return c.Fallback.Backend
	}
	if strings.TrimSpace(c.LastFM.APIKey) != "" {
		return BackendLastFM
	}
	return BackendDeezer
}

// Timeout returns the per-resolution timeout.
func (c *Config) Timeout() time.Duration {
	return c.Resolver.Timeout.Duration
}

// CreateConfigFile writes the example config to path. It fails if the file exists.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
