package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/metrics"
	"github.com/skywatch/overpass/internal/passes"
	"github.com/skywatch/overpass/internal/transform"
)

// maxPassesLimit caps the per-request pass budget so a single query
// cannot hold a connection scanning weeks of ephemeris.
const maxPassesLimit = 50

type satellitePasses struct {
	NoradID   int           `json:"norad_id"`
	ShortName string        `json:"short_name"`
	FullName  string        `json:"full_name"`
	Count     int           `json:"count"`
	Passes    []passes.Pass `json:"passes"`
}

func (s *Server) handleAllPasses(w http.ResponseWriter, r *http.Request) {
	ds := s.deps.Ephemeris.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no ephemeris data loaded")
		return
	}

	only, err := s.satelliteFilter(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	opts, err := s.searchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	observer, err := s.observerFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := ephem.NewEngine(observer, ds.Ephemerides...)
	start := time.Now()
	results := make([]satellitePasses, 0, len(s.deps.Satellites))
	total := 0
	for i, sat := range s.deps.Satellites {
		if only >= 0 && i != only {
			continue
		}
		opts.Satellite = i
		found := passes.FindPasses(r.Context(), engine, opts)
		if found == nil {
			found = []passes.Pass{}
		}
		total += len(found)
		results = append(results, satellitePasses{
			NoradID:   sat.NoradID,
			ShortName: sat.ShortName,
			FullName:  sat.FullName,
			Count:     len(found),
			Passes:    found,
		})
	}
	metrics.ObservePassSearch(time.Since(start), total)

	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"results":      results,
	})
}

func (s *Server) handleSatellitePasses(w http.ResponseWriter, r *http.Request) {
	noradID, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "norad_id must be an integer")
		return
	}
	idx := catalog.IndexOf(s.deps.Satellites, noradID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown satellite %d", noradID))
		return
	}

	ds := s.deps.Ephemeris.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no ephemeris data loaded")
		return
	}

	opts, err := s.searchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Satellite = idx
	observer, err := s.observerFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := ephem.NewEngine(observer, ds.Ephemerides...)
	start := time.Now()
	found := passes.FindPasses(r.Context(), engine, opts)
	metrics.ObservePassSearch(time.Since(start), len(found))
	if found == nil {
		found = []passes.Pass{}
	}

	sat := s.deps.Satellites[idx]
	writeJSON(w, http.StatusOK, satellitePasses{
		NoradID:   sat.NoradID,
		ShortName: sat.ShortName,
		FullName:  sat.FullName,
		Count:     len(found),
		Passes:    found,
	})
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	ds := s.deps.Ephemeris.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no ephemeris data loaded")
		return
	}

	only, err := s.satelliteFilter(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	type coverage struct {
		NoradID   int    `json:"norad_id"`
		ShortName string `json:"short_name"`
		Start     string `json:"start,omitempty"`
		End       string `json:"end,omitempty"`
		Points    int    `json:"points"`
	}

	out := make([]coverage, 0, len(s.deps.Satellites))
	for i, sat := range s.deps.Satellites {
		if only >= 0 && i != only {
			continue
		}
		c := coverage{NoradID: sat.NoradID, ShortName: sat.ShortName}
		if i < len(ds.Ephemerides) && ds.Ephemerides[i] != nil {
			eph := ds.Ephemerides[i]
			c.Points = eph.Len()
			if startJD, endJD, ok := eph.Range(); ok {
				c.Start = transform.TimeFromJulian(startJD).Format(time.RFC3339)
				c.End = transform.TimeFromJulian(endJD).Format(time.RFC3339)
			}
		}
		out = append(out, c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":       ds.Source,
		"generated_at": ds.GeneratedAt.UTC().Format(time.RFC3339),
		"age_seconds":  s.deps.Ephemeris.AgeSeconds(),
		"satellites":   out,
	})
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		catalog.Satellite
		Index    int    `json:"index"`
		TLEEpoch string `json:"tle_epoch,omitempty"`
	}

	var epochs map[int]time.Time
	if ds := s.deps.Catalog.Get(); ds != nil {
		epochs = make(map[int]time.Time, len(ds.Entries))
		for _, e := range ds.Entries {
			epochs[e.NoradID] = e.Epoch
		}
	}

	out := make([]entry, 0, len(s.deps.Satellites))
	for i, sat := range s.deps.Satellites {
		e := entry{Satellite: sat, Index: i}
		if epoch, ok := epochs[sat.NoradID]; ok {
			e.TLEEpoch = epoch.UTC().Format(time.RFC3339)
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"satellites": out})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog refresh is disabled")
		return
	}
	if err := s.deps.Refresh(r.Context()); err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("refresh failed: %v", err))
		return
	}

	resp := map[string]any{"status": "ok"}
	if ds := s.deps.Ephemeris.Get(); ds != nil {
		resp["generated_at"] = ds.GeneratedAt.UTC().Format(time.RFC3339)
		resp["points"] = s.deps.Ephemeris.TotalPoints()
	}
	writeJSON(w, http.StatusOK, resp)
}

// satelliteFilter resolves an optional ?satellite=<norad_id> query parameter
// to a catalog index. It returns -1 when the parameter is absent.
func (s *Server) satelliteFilter(r *http.Request) (int, error) {
	v := r.URL.Query().Get("satellite")
	if v == "" {
		return -1, nil
	}
	noradID, err := strconv.Atoi(v)
	if err != nil {
		return -1, fmt.Errorf("unknown satellite %q", v)
	}
	idx := catalog.IndexOf(s.deps.Satellites, noradID)
	if idx < 0 {
		return -1, fmt.Errorf("unknown satellite %d", noradID)
	}
	return idx, nil
}

// observerFor returns the configured observer, or one built from the lat,
// lon and height_m query parameters. lat and lon must be given together.
func (s *Server) observerFor(r *http.Request) (transform.Observer, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return s.deps.Observer, nil
	}
	if latStr == "" || lonStr == "" {
		return s.deps.Observer, fmt.Errorf("lat and lon must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return s.deps.Observer, fmt.Errorf("lat must be a number in [-90, 90]")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return s.deps.Observer, fmt.Errorf("lon must be a number in [-180, 180]")
	}

	height := 0.0
	if v := q.Get("height_m"); v != "" {
		height, err = strconv.ParseFloat(v, 64)
		if err != nil || height < -500 || height > 10000 {
			return s.deps.Observer, fmt.Errorf("height_m must be a number in [-500, 10000]")
		}
	}
	return transform.NewObserver(lat, lon, height), nil
}

// searchOptions builds pass-search options from query parameters, starting
// from the configured defaults.
func (s *Server) searchOptions(r *http.Request) (passes.SearchOptions, error) {
	opts := passes.SearchOptions{
		MinAltitude:      s.deps.Search.MinAltitudeDeg,
		MaxPasses:        s.deps.Search.MaxPasses,
		SunAltitudeLimit: s.deps.Search.SunAltitudeLimit,
	}

	q := r.URL.Query()
	if v := q.Get("min_altitude"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f >= 90 {
			return opts, fmt.Errorf("min_altitude must be a number in [0, 90)")
		}
		opts.MinAltitude = f
	}
	if v := q.Get("max_passes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPassesLimit {
			return opts, fmt.Errorf("max_passes must be an integer in [1, %d]", maxPassesLimit)
		}
		opts.MaxPasses = n
	}
	if v := q.Get("sun_limit"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -18 || f > 0 {
			return opts, fmt.Errorf("sun_limit must be a number in [-18, 0]")
		}
		opts.SunAltitudeLimit = f
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, fmt.Errorf("from must be an RFC 3339 timestamp")
		}
		opts.Now = t
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
