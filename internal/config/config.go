// Package config loads the optional TOML configuration file. Settings
// given here are defaults; environment variables applied by the entry
// points override them.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Observer is the ground station the service predicts passes for.
type Observer struct {
	LatitudeDeg  float64 `toml:"latitude_deg"`
	LongitudeDeg float64 `toml:"longitude_deg"`
	HeightM      float64 `toml:"height_m"`
}

// Satellite adds or overrides a catalog entry.
type Satellite struct {
	NoradID   int    `toml:"norad_id"`
	ShortName string `toml:"short_name"`
	FullName  string `toml:"full_name"`
}

// Search holds default pass-search parameters.
type Search struct {
	MinAltitudeDeg    float64 `toml:"min_altitude_deg"`
	MaxPasses         int     `toml:"max_passes"`
	SunAltitudeLimit  float64 `toml:"sun_altitude_limit_deg"`
	HorizonHours      int     `toml:"horizon_hours"`
	SampleStepSeconds int     `toml:"sample_step_seconds"`
}

// Fetch controls catalog refresh behaviour.
type Fetch struct {
	Enabled                bool   `toml:"enabled"`
	CacheDir               string `toml:"cache_dir"`
	MaxCacheFiles          int    `toml:"max_cache_files"`
	RefreshIntervalSeconds int    `toml:"refresh_interval_seconds"`
}

// Config is the full file configuration.
type Config struct {
	Observer   Observer    `toml:"observer"`
	Satellites []Satellite `toml:"satellites"`
	Search     Search      `toml:"search"`
	Fetch      Fetch       `toml:"fetch"`
}

// Default returns the configuration used when no file is present:
// Greenwich observer, built-in satellite set, standard search window.
func Default() Config {
	return Config{
		Observer: Observer{LatitudeDeg: 51.4769, LongitudeDeg: 0.0005, HeightM: 45},
		Search: Search{
			MinAltitudeDeg:    10,
			MaxPasses:         10,
			SunAltitudeLimit:  -6,
			HorizonHours:      72,
			SampleStepSeconds: 60,
		},
		Fetch: Fetch{
			Enabled:                true,
			CacheDir:               "/tmp/overpass/catalog",
			MaxCacheFiles:          5,
			RefreshIntervalSeconds: 6 * 3600,
		},
	}
}

// Load reads a TOML config file, layering it over Default. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Observer.LatitudeDeg < -90 || c.Observer.LatitudeDeg > 90 {
		return fmt.Errorf("observer latitude %.4f out of range [-90, 90]", c.Observer.LatitudeDeg)
	}
	if c.Observer.LongitudeDeg < -180 || c.Observer.LongitudeDeg > 180 {
		return fmt.Errorf("observer longitude %.4f out of range [-180, 180]", c.Observer.LongitudeDeg)
	}
	if c.Search.MinAltitudeDeg < 0 || c.Search.MinAltitudeDeg >= 90 {
		return fmt.Errorf("minimum altitude %.1f out of range [0, 90)", c.Search.MinAltitudeDeg)
	}
	if c.Search.HorizonHours < 1 {
		return fmt.Errorf("search horizon must be at least 1 hour, got %d", c.Search.HorizonHours)
	}
	if c.Search.SampleStepSeconds < 1 {
		return fmt.Errorf("sample step must be at least 1 second, got %d", c.Search.SampleStepSeconds)
	}
	for _, s := range c.Satellites {
		if s.NoradID <= 0 {
			return fmt.Errorf("satellite %q has invalid NORAD ID %d", s.ShortName, s.NoradID)
		}
	}
	return nil
}
