package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skywatch/overpass/internal/auth"
	"github.com/skywatch/overpass/internal/catalog"
	"github.com/skywatch/overpass/internal/config"
	"github.com/skywatch/overpass/internal/ephem"
	"github.com/skywatch/overpass/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var testWindowStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// testDeps builds a server dependency set with a small synthetic dataset
// covering one day from testWindowStart.
func testDeps(withData bool) Deps {
	deps := Deps{
		Observer:   transform.NewObserver(40.7128, -74.006, 10),
		Satellites: catalog.Builtin,
		Catalog:    catalog.NewStore(),
		Ephemeris:  ephem.NewStore(),
		Search:     config.Default().Search,
	}
	if !withData {
		return deps
	}

	startJD := transform.JulianDate(testWindowStart)
	var points []ephem.Point
	for i := 0; i <= 24; i++ {
		points = append(points, ephem.Point{
			JD:  startJD + float64(i)/24,
			XKm: 6778, YKm: 0, ZKm: 0,
		})
	}
	eph := ephem.New(points)

	ephs := make([]*ephem.Ephemeris, len(deps.Satellites))
	for i := range ephs {
		ephs[i] = eph
	}
	deps.Ephemeris.Set(&ephem.Dataset{
		Source:      "test",
		GeneratedAt: testWindowStart,
		Ephemerides: ephs,
	})
	return deps
}

func newTestServer(deps Deps) *Server {
	return NewServer(":0", testLogger(), auth.Config{}, deps)
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.HTTPServer().Handler.ServeHTTP(rec, req)
	return rec
}

func TestReadyzReflectsDataset(t *testing.T) {
	s := newTestServer(testDeps(false))
	if rec := do(t, s, "GET", "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("empty store readyz = %d, want 503", rec.Code)
	}

	s = newTestServer(testDeps(true))
	if rec := do(t, s, "GET", "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("loaded store readyz = %d, want 200", rec.Code)
	}
}

func TestSatellitesEndpoint(t *testing.T) {
	s := newTestServer(testDeps(true))
	rec := do(t, s, "GET", "/api/v1/satellites")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Satellites []struct {
			NoradID int    `json:"norad_id"`
			Index   int    `json:"index"`
			Short   string `json:"short_name"`
		} `json:"satellites"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Satellites) != len(catalog.Builtin) {
		t.Fatalf("got %d satellites, want %d", len(resp.Satellites), len(catalog.Builtin))
	}
	if resp.Satellites[0].NoradID != 25544 || resp.Satellites[0].Index != 0 {
		t.Errorf("first satellite = %+v", resp.Satellites[0])
	}
}

func TestRangeEndpoint(t *testing.T) {
	s := newTestServer(testDeps(true))
	rec := do(t, s, "GET", "/api/v1/range")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Source     string `json:"source"`
		Satellites []struct {
			NoradID int    `json:"norad_id"`
			Start   string `json:"start"`
			End     string `json:"end"`
			Points  int    `json:"points"`
		} `json:"satellites"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "test" {
		t.Errorf("source = %q", resp.Source)
	}
	if len(resp.Satellites) == 0 {
		t.Fatal("no satellite coverage entries")
	}
	first := resp.Satellites[0]
	if first.Points != 25 {
		t.Errorf("points = %d, want 25", first.Points)
	}
	start, err := time.Parse(time.RFC3339, first.Start)
	if err != nil {
		t.Fatalf("bad start time %q: %v", first.Start, err)
	}
	if d := start.Sub(testWindowStart); d < -time.Second || d > time.Second {
		t.Errorf("coverage start = %v, want %v", start, testWindowStart)
	}
}

func TestRangeWithoutDataset(t *testing.T) {
	s := newTestServer(testDeps(false))
	if rec := do(t, s, "GET", "/api/v1/range"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPassesEndpointValidation(t *testing.T) {
	s := newTestServer(testDeps(true))

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown satellite", "/api/v1/passes/99999", http.StatusNotFound},
		{"non-numeric id", "/api/v1/passes/iss", http.StatusBadRequest},
		{"bad min_altitude", "/api/v1/passes/25544?min_altitude=95", http.StatusBadRequest},
		{"negative min_altitude", "/api/v1/passes/25544?min_altitude=-1", http.StatusBadRequest},
		{"max_passes over limit", "/api/v1/passes/25544?max_passes=1000", http.StatusBadRequest},
		{"bad sun_limit", "/api/v1/passes/25544?sun_limit=5", http.StatusBadRequest},
		{"bad from", "/api/v1/passes/25544?from=yesterday", http.StatusBadRequest},
		{"valid", "/api/v1/passes/25544?from=2024-06-01T00:00:00Z&min_altitude=0", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, "GET", tt.target); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPassesEndpointShape(t *testing.T) {
	s := newTestServer(testDeps(true))
	rec := do(t, s, "GET", "/api/v1/passes/25544?from=2024-06-01T00:00:00Z")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		NoradID int               `json:"norad_id"`
		Count   int               `json:"count"`
		Passes  []json.RawMessage `json:"passes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NoradID != 25544 {
		t.Errorf("norad_id = %d", resp.NoradID)
	}
	if resp.Passes == nil {
		t.Error("passes must be an array, not null")
	}
	if resp.Count != len(resp.Passes) {
		t.Errorf("count = %d but %d passes", resp.Count, len(resp.Passes))
	}
}

func TestAllPassesEndpoint(t *testing.T) {
	s := newTestServer(testDeps(true))
	rec := do(t, s, "GET", "/api/v1/passes?from=2024-06-01T00:00:00Z")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			NoradID int `json:"norad_id"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != len(catalog.Builtin) {
		t.Errorf("results = %d, want one per satellite", len(resp.Results))
	}
}

func TestAllPassesSatelliteFilter(t *testing.T) {
	s := newTestServer(testDeps(true))

	rec := do(t, s, "GET", "/api/v1/passes?from=2024-06-01T00:00:00Z&satellite=20580")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []struct {
			NoradID int `json:"norad_id"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].NoradID != 20580 {
		t.Errorf("filtered results = %+v, want only 20580", resp.Results)
	}

	if rec := do(t, s, "GET", "/api/v1/passes?satellite=99999"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown satellite filter = %d, want 404", rec.Code)
	}
	if rec := do(t, s, "GET", "/api/v1/passes?satellite=iss"); rec.Code != http.StatusNotFound {
		t.Errorf("non-numeric satellite filter = %d, want 404", rec.Code)
	}
	if rec := do(t, s, "GET", "/api/v1/range?satellite=99999"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown satellite on range = %d, want 404", rec.Code)
	}
}

func TestObserverOverride(t *testing.T) {
	s := newTestServer(testDeps(true))

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"valid override", "/api/v1/passes/25544?from=2024-06-01T00:00:00Z&lat=51.5&lon=-0.1", http.StatusOK},
		{"with height", "/api/v1/passes/25544?from=2024-06-01T00:00:00Z&lat=51.5&lon=-0.1&height_m=35", http.StatusOK},
		{"lat without lon", "/api/v1/passes/25544?lat=51.5", http.StatusBadRequest},
		{"lon without lat", "/api/v1/passes/25544?lon=-0.1", http.StatusBadRequest},
		{"lat out of range", "/api/v1/passes/25544?lat=95&lon=0", http.StatusBadRequest},
		{"lon out of range", "/api/v1/passes/25544?lat=0&lon=-200", http.StatusBadRequest},
		{"non-numeric lat", "/api/v1/passes/25544?lat=north&lon=0", http.StatusBadRequest},
		{"height out of range", "/api/v1/passes/25544?lat=0&lon=0&height_m=99999", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, "GET", tt.target); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(testDeps(true))
		if rec := do(t, s, "POST", "/api/v1/refresh"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		deps := testDeps(true)
		called := false
		deps.Refresh = func(ctx context.Context) error {
			called = true
			return nil
		}
		s := newTestServer(deps)
		if rec := do(t, s, "POST", "/api/v1/refresh"); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if !called {
			t.Error("refresh func not invoked")
		}
	})

	t.Run("failure", func(t *testing.T) {
		deps := testDeps(true)
		deps.Refresh = func(ctx context.Context) error {
			return errors.New("upstream down")
		}
		s := newTestServer(deps)
		if rec := do(t, s, "POST", "/api/v1/refresh"); rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}

func TestRefreshRequiresAuthWhenEnabled(t *testing.T) {
	deps := testDeps(true)
	deps.Refresh = func(ctx context.Context) error { return nil }
	s := NewServer(":0", testLogger(), auth.Config{Enabled: true, Token: "secret"}, deps)

	if rec := do(t, s, "POST", "/api/v1/refresh"); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated refresh = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("POST", "/api/v1/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.HTTPServer().Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated refresh = %d, want 200", rec.Code)
	}

	// Read endpoints stay public.
	if rec := do(t, s, "GET", "/api/v1/passes/25544?from=2024-06-01T00:00:00Z"); rec.Code != http.StatusOK {
		t.Errorf("public passes endpoint = %d, want 200", rec.Code)
	}
}
