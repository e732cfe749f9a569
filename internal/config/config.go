package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Analysis contains acoustic analysis parameters.
type Analysis struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	SampleRate    int    `toml:"sample_rate"`
	WindowSize    int    `toml:"window_size"`
	WindowSeconds int    `toml:"window_seconds"`
	MelFilters    int    `toml:"mel_filters"`
	Coefficients  int    `toml:"coefficients"`
}

// Similarity contains similarity store and neighbour index tuning.
type Similarity struct {
	CacheHorizonDays int `toml:"cache_horizon_days"`
	NeighbourCount   int `toml:"neighbour_count"`
}

// Birthday identifies a personal anniversary the context engine boosts.
type Birthday struct {
	Name  string `toml:"name"`
	Year  int    `toml:"year"`
	Month int    `toml:"month"`
	Day   int    `toml:"day"`
}

// Context contains contextual rescoring configuration.
type Context struct {
	Latitude           float64    `toml:"latitude"`
	Longitude          float64    `toml:"longitude"`
	SouthernHemisphere bool       `toml:"southern_hemisphere"`
	WeatherTTLMinutes  int        `toml:"weather_ttl_minutes"`
	Birthdays          []Birthday `toml:"birthdays"`
}

// Queue contains queue controller configuration.
type Queue struct {
	TargetSeconds     int `toml:"target_seconds"`
	ArtistBlockDays   int `toml:"artist_block_days"`
	LookaheadWindow   int `toml:"lookahead_window"`
	CrowdThrottleSecs int `toml:"crowd_throttle_seconds"`
}

// Player contains host player connection settings.
type Player struct {
	MPDAddress  string `toml:"mpd_address"`
	PollSeconds int    `toml:"poll_seconds"`
}

// Crowd contains crowd-similarity source settings. An empty API key disables
// the crowd candidate sources.
type Crowd struct {
	LastFMAPIKey string `toml:"lastfm_api_key"`
}

// Config is the root configuration shared by the daemon and CLI.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Analysis   Analysis   `toml:"analysis"`
	Similarity Similarity `toml:"similarity"`
	Context    Context    `toml:"context"`
	Queue      Queue      `toml:"queue"`
	Player     Player     `toml:"player"`
	Crowd      Crowd      `toml:"crowd"`
	LogLevel   string     `toml:"log_level"`
	LogFormat  string     `toml:"log_format"`
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cadence", "config.toml"), nil
}

// Load reads configuration from path, or the default location when path is
// empty. A missing file yields defaults. The returned bool reports whether a
// file was actually read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, false, err
		}
		resolved = defaultPath
	}
	resolved = ExpandPath(resolved)

	data, err := os.ReadFile(resolved) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.normalize()
			if vErr := cfg.Validate(); vErr != nil {
				return nil, false, vErr
			}
			return &cfg, false, nil
		}
		return nil, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, true, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the configured data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (c *Config) normalize() {
	c.Paths.DataDir = ExpandPath(c.Paths.DataDir)
	c.Paths.LogDir = ExpandPath(c.Paths.LogDir)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}
