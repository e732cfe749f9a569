package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateContext(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.SampleRate <= 0 {
		return errors.New("analysis.sample_rate must be positive")
	}
	if c.Analysis.WindowSize <= 0 || c.Analysis.WindowSize&(c.Analysis.WindowSize-1) != 0 {
		return fmt.Errorf("analysis.window_size must be a positive power of two, got %d", c.Analysis.WindowSize)
	}
	if c.Analysis.WindowSeconds <= 0 {
		return errors.New("analysis.window_seconds must be positive")
	}
	if c.Analysis.Coefficients < 2 || c.Analysis.Coefficients > c.Analysis.MelFilters {
		return fmt.Errorf("analysis.coefficients must be in [2, mel_filters], got %d", c.Analysis.Coefficients)
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if c.Similarity.CacheHorizonDays <= 0 {
		return errors.New("similarity.cache_horizon_days must be positive")
	}
	if c.Similarity.NeighbourCount <= 0 {
		return errors.New("similarity.neighbour_count must be positive")
	}
	return nil
}

func (c *Config) validateContext() error {
	if c.Context.Latitude < -90 || c.Context.Latitude > 90 {
		return fmt.Errorf("context.latitude out of range: %v", c.Context.Latitude)
	}
	if c.Context.Longitude < -180 || c.Context.Longitude > 180 {
		return fmt.Errorf("context.longitude out of range: %v", c.Context.Longitude)
	}
	if c.Context.WeatherTTLMinutes <= 0 {
		return errors.New("context.weather_ttl_minutes must be positive")
	}
	for i, b := range c.Context.Birthdays {
		if b.Name == "" {
			return fmt.Errorf("context.birthdays[%d].name must be set", i)
		}
		if b.Month < 1 || b.Month > 12 || b.Day < 1 || b.Day > 31 {
			return fmt.Errorf("context.birthdays[%d] has invalid date %d-%d", i, b.Month, b.Day)
		}
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.TargetSeconds <= 0 {
		return errors.New("queue.target_seconds must be positive")
	}
	if c.Queue.ArtistBlockDays < 0 {
		return errors.New("queue.artist_block_days must not be negative")
	}
	if c.Queue.LookaheadWindow <= 0 {
		return errors.New("queue.lookahead_window must be positive")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.MPDAddress == "" {
		return errors.New("player.mpd_address must be set")
	}
	if c.Player.PollSeconds <= 0 {
		return errors.New("player.poll_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// CacheHorizon returns the crowd-data staleness horizon as a duration.
func (c *Config) CacheHorizon() time.Duration {
	return time.Duration(c.Similarity.CacheHorizonDays) * 24 * time.Hour
}

// WeatherTTL returns the weather cache TTL as a duration.
func (c *Config) WeatherTTL() time.Duration {
	return time.Duration(c.Context.WeatherTTLMinutes) * time.Minute
}

// PollInterval returns the player polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Player.PollSeconds) * time.Second
}

// ArtistBlock returns the artist cooldown as a duration.
func (c *Config) ArtistBlock() time.Duration {
	return time.Duration(c.Queue.ArtistBlockDays) * 24 * time.Hour
}
