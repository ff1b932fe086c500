package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overpass.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Search.MinAltitudeDeg != 10 || cfg.Search.MaxPasses != 10 {
		t.Errorf("defaults not applied: %+v", cfg.Search)
	}
	if !cfg.Fetch.Enabled {
		t.Error("fetch should default to enabled")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("empty path should not error: %v", err)
	}
	if cfg.Search.HorizonHours != 72 {
		t.Errorf("horizon = %d, want 72", cfg.Search.HorizonHours)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[observer]
latitude_deg = 28.5
longitude_deg = -80.6
height_m = 3.0

[search]
min_altitude_deg = 25.0
max_passes = 4

[[satellites]]
norad_id = 48274
short_name = "CSS"
full_name = "Tiangong space station"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Observer.LatitudeDeg != 28.5 {
		t.Errorf("latitude = %.2f, want 28.5", cfg.Observer.LatitudeDeg)
	}
	if cfg.Search.MinAltitudeDeg != 25 || cfg.Search.MaxPasses != 4 {
		t.Errorf("search overrides not applied: %+v", cfg.Search)
	}
	// Unset keys keep their defaults.
	if cfg.Search.HorizonHours != 72 {
		t.Errorf("horizon = %d, want default 72", cfg.Search.HorizonHours)
	}
	if len(cfg.Satellites) != 1 || cfg.Satellites[0].NoradID != 48274 {
		t.Errorf("satellites = %+v", cfg.Satellites)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[observer\nlatitude_deg = oops")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"latitude out of range", "[observer]\nlatitude_deg = 95.0"},
		{"longitude out of range", "[observer]\nlongitude_deg = 181.0"},
		{"min altitude too high", "[search]\nmin_altitude_deg = 90.0"},
		{"zero horizon", "[search]\nhorizon_hours = 0"},
		{"bad satellite id", "[[satellites]]\nnorad_id = 0\nshort_name = \"X\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
