package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skywatch/overpass/internal/api"
	"github.com/skywatch/overpass/internal/auth"
	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/config"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/metrics"
	"github.com/skywatch/overpass/internal/transform"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(os.Getenv("OVERPASS_CONFIG"))
	if err != nil {
		logger.Error("invalid configuration file", "error", err)
		os.Exit(1)
	}

	addr := os.Getenv("OVERPASS_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	fetchCfg := loadFetchConfig(logger, cfg.Fetch)
	observer := loadObserver(logger, cfg.Observer)
	sats := satelliteSet(cfg)

	catStore := catalog.NewStore()
	ephStore := ephem.NewStore()
	catCache := catalog.NewCache(fetchCfg.CacheDir, fetchCfg.MaxCacheFiles)
	fetcher := catalog.NewSatelliteFetcher(logger, sats)

	svc := &service{
		logger:  logger,
		search:  cfg.Search,
		sats:    sats,
		fetcher: fetcher,
		cache:   catCache,
		catalog: catStore,
		ephem:   ephStore,
		fetchOK: fetchCfg.Enabled,
	}

	// Seed from the on-disk cache so a restart does not need the network.
	if data, ts, err := catCache.LoadLatest(); err != nil {
		logger.Info("no catalog cache found, starting empty", "error", err)
	} else if err := svc.load(data, "cache", ts); err != nil {
		logger.Warn("failed to load cached catalog", "error", err)
	}

	// First refresh happens synchronously when nothing was cached, so the
	// service comes up ready whenever the network allows.
	if fetchCfg.Enabled && ephStore.Get() == nil {
		if err := svc.refresh(context.Background()); err != nil {
			logger.Warn("initial catalog refresh failed", "error", err)
		}
	}

	var refreshFn func(ctx context.Context) error
	if fetchCfg.Enabled {
		refreshFn = svc.refresh
	}

	srv := api.NewServer(addr, logger, authCfg, api.Deps{
		Observer:   observer,
		Satellites: sats,
		Catalog:    catStore,
		Ephemeris:  ephStore,
		Search:     cfg.Search,
		Refresh:    refreshFn,
		TrustProxy: os.Getenv("OVERPASS_TRUST_PROXY") == "true",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keep the freshness gauges current.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := ephStore.AgeSeconds(); age >= 0 {
					metrics.SetEphemerisAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Periodic refresh keeps predictions tracking fresh element sets.
	if fetchCfg.Enabled {
		go func() {
			ticker := time.NewTicker(fetchCfg.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := svc.refresh(ctx); err != nil {
						logger.Warn("scheduled catalog refresh failed", "error", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"fetch_enabled", fetchCfg.Enabled,
			"satellites", len(sats),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// service owns the catalog refresh pipeline: fetch, parse, cache, and
// ephemeris regeneration.
type service struct {
	logger  *slog.Logger
	search  config.Search
	sats    []catalog.Satellite
	fetcher *catalog.Fetcher
	cache   *catalog.Cache
	catalog *catalog.Store
	ephem   *ephem.Store
	fetchOK bool
}

// refresh fetches fresh TLEs, persists them, and regenerates ephemerides.
func (s *service) refresh(ctx context.Context) error {
	if !s.fetchOK {
		return errors.New("catalog fetch is disabled")
	}

	s.catalog.Lock()
	defer s.catalog.Unlock()

	data, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	now := time.Now().UTC()
	if err := s.cache.Write(data, now); err != nil {
		s.logger.Warn("failed to persist catalog snapshot", "error", err)
	}

	return s.load(data, "celestrak", now)
}

// load parses raw TLE text, installs the catalog dataset, and regenerates
// the ephemeris dataset for the search horizon.
func (s *service) load(data []byte, source string, fetchedAt time.Time) error {
	entries, err := catalog.Parse(bytes.NewReader(data), s.logger)
	if err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	if len(entries) == 0 {
		return errors.New("catalog contains no valid TLE entries")
	}

	s.catalog.Set(&catalog.Dataset{
		Source:     source,
		FetchedAt:  fetchedAt,
		EpochRange: catalog.ComputeEpochRange(entries),
		Entries:    entries,
	})
	metrics.SetCatalogSatellites(len(entries))

	// Index-align TLEs with the satellite set; satellites missing from
	// the fetched data get a nil ephemeris and a warning from the batch.
	byID := make(map[int]catalog.Entry, len(entries))
	for _, e := range entries {
		byID[e.NoradID] = e
	}
	tles := make([]ephem.TLE, len(s.sats))
	for i, sat := range s.sats {
		e := byID[sat.NoradID]
		tles[i] = ephem.TLE{NoradID: sat.NoradID, Name: sat.FullName, Line1: e.Line1, Line2: e.Line2}
	}

	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(time.Duration(s.search.HorizonHours)*time.Hour + time.Hour)
	step := time.Duration(s.search.SampleStepSeconds) * time.Second

	ephs := ephem.GenerateBatch(context.Background(), tles, start, end, step, s.logger)
	ds := &ephem.Dataset{Source: source, GeneratedAt: time.Now().UTC(), Ephemerides: ephs}
	s.ephem.Set(ds)
	metrics.SetEphemerisPoints(s.ephem.TotalPoints())
	metrics.SetEphemerisAge(0)

	s.logger.Info("ephemeris dataset regenerated",
		"source", source,
		"satellites", len(s.sats),
		"points", s.ephem.TotalPoints(),
		"horizon_hours", s.search.HorizonHours,
	)
	return nil
}

// satelliteSet resolves the tracked satellites: config overrides the
// built-in list when present.
func satelliteSet(cfg config.Config) []catalog.Satellite {
	if len(cfg.Satellites) == 0 {
		return catalog.Builtin
	}
	sats := make([]catalog.Satellite, len(cfg.Satellites))
	for i, s := range cfg.Satellites {
		sats[i] = catalog.Satellite{NoradID: s.NoradID, ShortName: s.ShortName, FullName: s.FullName}
	}
	return sats
}

func loadObserver(logger *slog.Logger, obs config.Observer) transform.Observer {
	lat, lon, height := obs.LatitudeDeg, obs.LongitudeDeg, obs.HeightM

	if v := os.Getenv("OVERPASS_OBSERVER_LAT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -90 || f > 90 {
			logger.Warn("invalid OVERPASS_OBSERVER_LAT value, using config", "value", v)
		} else {
			lat = f
		}
	}
	if v := os.Getenv("OVERPASS_OBSERVER_LON"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -180 || f > 180 {
			logger.Warn("invalid OVERPASS_OBSERVER_LON value, using config", "value", v)
		} else {
			lon = f
		}
	}
	if v := os.Getenv("OVERPASS_OBSERVER_HEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Warn("invalid OVERPASS_OBSERVER_HEIGHT value, using config", "value", v)
		} else {
			height = f
		}
	}

	logger.Info("observer", "lat_deg", lat, "lon_deg", lon, "height_m", height)
	return transform.NewObserver(lat, lon, height)
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	if v := os.Getenv("OVERPASS_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("OVERPASS_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("OVERPASS_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("OVERPASS_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

type fetchConfig struct {
	Enabled         bool
	CacheDir        string
	MaxCacheFiles   int
	RefreshInterval time.Duration
}

func loadFetchConfig(logger *slog.Logger, fc config.Fetch) fetchConfig {
	cfg := fetchConfig{
		Enabled:         fc.Enabled,
		CacheDir:        fc.CacheDir,
		MaxCacheFiles:   fc.MaxCacheFiles,
		RefreshInterval: time.Duration(fc.RefreshIntervalSeconds) * time.Second,
	}
	if cfg.RefreshInterval < time.Minute {
		cfg.RefreshInterval = 6 * time.Hour
	}

	if v := os.Getenv("OVERPASS_ENABLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid OVERPASS_ENABLE_FETCH value, using config", "value", v)
		} else {
			cfg.Enabled = enabled
		}
	}
	if v := os.Getenv("OVERPASS_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("OVERPASS_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 60 {
			logger.Warn("invalid OVERPASS_REFRESH_INTERVAL value, using config", "value", v)
		} else {
			cfg.RefreshInterval = time.Duration(n) * time.Second
		}
	}

	logger.Info("fetch config",
		"enabled", cfg.Enabled,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
	)
	return cfg
}
