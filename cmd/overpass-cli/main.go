// Command overpass-cli predicts visible satellite passes from the terminal
// using the same catalog and prediction core as the service.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/config"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/transform"
)

const version = "0.3.0"

var (
	flagConfig   string
	flagLat      float64
	flagLon      float64
	flagHeight   float64
	flagCacheDir string
	flagOffline  bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "overpass-cli",
	Short:         "Predict visible satellite passes for an observer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("overpass-cli version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().Float64Var(&flagLat, "lat", 91, "observer latitude in degrees (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagLon, "lon", 181, "observer longitude in degrees (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagHeight, "height", 0, "observer height in metres (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "catalog cache directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "use only cached TLE data, never fetch")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log catalog and generation details to stderr")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env bundles everything the subcommands derive from flags and config.
type env struct {
	logger   *slog.Logger
	cfg      config.Config
	observer transform.Observer
	sats     []catalog.Satellite
	cache    *catalog.Cache
}

func setup() (*env, error) {
	logOut := io.Discard
	if flagVerbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	obs := cfg.Observer
	if flagLat >= -90 && flagLat <= 90 {
		obs.LatitudeDeg = flagLat
	}
	if flagLon >= -180 && flagLon <= 180 {
		obs.LongitudeDeg = flagLon
	}
	if flagHeight != 0 {
		obs.HeightM = flagHeight
	}

	cacheDir := cfg.Fetch.CacheDir
	if flagCacheDir != "" {
		cacheDir = flagCacheDir
	}

	sats := catalog.Builtin
	if len(cfg.Satellites) > 0 {
		sats = make([]catalog.Satellite, len(cfg.Satellites))
		for i, s := range cfg.Satellites {
			sats[i] = catalog.Satellite{NoradID: s.NoradID, ShortName: s.ShortName, FullName: s.FullName}
		}
	}

	return &env{
		logger:   logger,
		cfg:      cfg,
		observer: transform.NewObserver(obs.LatitudeDeg, obs.LongitudeDeg, obs.HeightM),
		sats:     sats,
		cache:    catalog.NewCache(cacheDir, cfg.Fetch.MaxCacheFiles),
	}, nil
}

// entries returns parsed TLE entries, preferring a fresh enough cache and
// falling back to the network unless --offline is set.
func (e *env) entries(ctx context.Context) ([]catalog.Entry, error) {
	maxAge := time.Duration(e.cfg.Fetch.RefreshIntervalSeconds) * time.Second

	if data, ts, err := e.cache.LoadLatest(); err == nil {
		if flagOffline || time.Since(ts) < maxAge {
			return catalog.Parse(bytes.NewReader(data), e.logger)
		}
	} else if flagOffline {
		return nil, fmt.Errorf("no cached TLE data available: %w", err)
	}

	fetcher := catalog.NewSatelliteFetcher(e.logger, e.sats)
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		// Stale cache beats no data.
		if cached, _, cerr := e.cache.LoadLatest(); cerr == nil {
			e.logger.Warn("fetch failed, using stale cache", "error", err)
			return catalog.Parse(bytes.NewReader(cached), e.logger)
		}
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	if err := e.cache.Write(data, time.Now().UTC()); err != nil {
		e.logger.Warn("failed to cache TLE data", "error", err)
	}
	return catalog.Parse(bytes.NewReader(data), e.logger)
}

// ephemerides generates index-aligned ephemerides for the satellite set
// over the given horizon.
func (e *env) ephemerides(ctx context.Context, entries []catalog.Entry, horizon time.Duration) []*ephem.Ephemeris {
	byID := make(map[int]catalog.Entry, len(entries))
	for _, en := range entries {
		byID[en.NoradID] = en
	}
	tles := make([]ephem.TLE, len(e.sats))
	for i, sat := range e.sats {
		en := byID[sat.NoradID]
		tles[i] = ephem.TLE{NoradID: sat.NoradID, Name: sat.FullName, Line1: en.Line1, Line2: en.Line2}
	}

	start := time.Now().UTC().Add(-time.Hour)
	step := time.Duration(e.cfg.Search.SampleStepSeconds) * time.Second
	return ephem.GenerateBatch(ctx, tles, start, start.Add(horizon+time.Hour), step, e.logger)
}
