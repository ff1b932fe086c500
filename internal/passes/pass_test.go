package passes

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestAzimuthToDirection(t *testing.T) {
	tests := []struct {
		az   float64
		want string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.26, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{348.74, "NNW"},
		{348.75, "N"},
		{359.9, "N"},
		{360, "N"},
		// Total function: any real input must map somewhere sensible.
		{-10, "N"},
		{-90, "W"},
		{765, "NE"},
	}

	for _, tt := range tests {
		if got := AzimuthToDirection(tt.az); got != tt.want {
			t.Errorf("AzimuthToDirection(%.2f) = %q, want %q", tt.az, got, tt.want)
		}
	}
}

func TestEstimateMagnitude(t *testing.T) {
	if got := EstimateMagnitude(0); math.Abs(got-horizonMagnitude) > 1e-9 {
		t.Errorf("EstimateMagnitude(0) = %.2f, want %.2f", got, horizonMagnitude)
	}
	if got := EstimateMagnitude(90); math.Abs(got-zenithMagnitude) > 1e-9 {
		t.Errorf("EstimateMagnitude(90) = %.2f, want %.2f", got, zenithMagnitude)
	}

	// Clamped outside [0, 90].
	if got := EstimateMagnitude(-20); got != EstimateMagnitude(0) {
		t.Errorf("EstimateMagnitude(-20) = %.2f, want clamp to horizon value", got)
	}
	if got := EstimateMagnitude(120); got != EstimateMagnitude(90) {
		t.Errorf("EstimateMagnitude(120) = %.2f, want clamp to zenith value", got)
	}

	// Higher passes are brighter (more negative magnitude).
	prev := EstimateMagnitude(0)
	for alt := 10.0; alt <= 90; alt += 10 {
		m := EstimateMagnitude(alt)
		if m >= prev {
			t.Errorf("EstimateMagnitude(%.0f) = %.2f, not brighter than %.2f", alt, m, prev)
		}
		prev = m
	}
}

func TestAltitudeFromDistance(t *testing.T) {
	tests := []struct {
		distKm float64
		want   float64
	}{
		{400, 90},
		{2300, 0},
		{1350, 45},
		{100, 90},  // clamped
		{5000, 0},  // clamped
	}
	for _, tt := range tests {
		if got := altitudeFromDistance(tt.distKm); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("altitudeFromDistance(%.0f) = %.3f, want %.3f", tt.distKm, got, tt.want)
		}
	}
}

func TestPassSummary(t *testing.T) {
	p := Pass{
		RiseTime:        time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC),
		RiseAzimuth:     315,
		RiseDirection:   "NW",
		MaxTime:         time.Date(2024, 1, 1, 5, 3, 0, 0, time.UTC),
		MaxAltitude:     62,
		MaxAzimuth:      10,
		SetTime:         time.Date(2024, 1, 1, 5, 6, 0, 0, time.UTC),
		SetAzimuth:      135,
		SetDirection:    "SE",
		DurationSeconds: 360,
		Magnitude:       -2.8,
	}

	got := p.Summary()
	for _, want := range []string{"NW", "SE", "62°", "mag -2.8", "6m"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
}

func TestPassTimeUntil(t *testing.T) {
	rise := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	p := Pass{RiseTime: rise, SetTime: rise.Add(6 * time.Minute)}

	tests := []struct {
		now  time.Time
		want string
	}{
		{rise.Add(-30 * time.Second), "in 1m"},
		{rise.Add(-25 * time.Minute), "in 25m"},
		{rise.Add(-3 * time.Hour), "in 3h"},
		{rise.Add(-50 * time.Hour), "in 2d"},
		{rise.Add(time.Minute), "now"},
		{rise.Add(10 * time.Minute), "passed"},
	}

	for _, tt := range tests {
		if got := p.TimeUntil(tt.now); got != tt.want {
			t.Errorf("TimeUntil(%v) = %q, want %q", tt.now, got, tt.want)
		}
	}
}
