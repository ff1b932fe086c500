package passes

import (
	"fmt"
	"math"
	"time"
)

// Pass describes one complete visibility window of a satellite over the
// observer, from the moment it becomes visible to the moment it stops being
// visible. Immutable once assembled.
type Pass struct {
	RiseTime      time.Time `json:"rise_time"`
	RiseAzimuth   float64   `json:"rise_azimuth"`
	RiseDirection string    `json:"rise_direction"`

	MaxTime     time.Time `json:"max_time"`
	MaxAltitude float64   `json:"max_altitude"`
	MaxAzimuth  float64   `json:"max_azimuth"`

	SetTime      time.Time `json:"set_time"`
	SetAzimuth   float64   `json:"set_azimuth"`
	SetDirection string    `json:"set_direction"`

	DurationSeconds float64 `json:"duration_seconds"`
	Magnitude       float64 `json:"magnitude"`
}

// compassPoints are the 16-point compass labels, clockwise from North.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// AzimuthToDirection maps an azimuth in degrees (any real number) to one of
// the 16 compass abbreviations. Each point spans 22.5°, centered on its
// nominal bearing, so azimuths within ±11.25° of North all map to "N".
func AzimuthToDirection(azDeg float64) string {
	az := math.Mod(azDeg, 360.0)
	if az < 0 {
		az += 360.0
	}
	idx := int(math.Round(az/22.5)) % 16
	return compassPoints[idx]
}

// Reference magnitudes for the brightness estimate. A pass that barely clears
// the horizon is dim; an overhead pass approaches the satellite's best case.
const (
	horizonMagnitude = -0.5
	zenithMagnitude  = -3.8
)

// EstimateMagnitude estimates the apparent magnitude of a pass from its peak
// altitude by linear interpolation between the horizon and zenith reference
// magnitudes. Illumination phase and atmospheric extinction are ignored, so
// treat the result as a rough guide, not a photometric prediction.
func EstimateMagnitude(maxAltitudeDeg float64) float64 {
	frac := maxAltitudeDeg / 90.0
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return horizonMagnitude + (zenithMagnitude-horizonMagnitude)*frac
}

// Summary renders a one-line human-readable description of the pass.
func (p Pass) Summary() string {
	return fmt.Sprintf("%s  rises %s, peaks %.0f° %s (mag %.1f), sets %s, %s",
		p.RiseTime.Format("Jan 2 15:04 MST"),
		p.RiseDirection,
		p.MaxAltitude,
		AzimuthToDirection(p.MaxAzimuth),
		p.Magnitude,
		p.SetDirection,
		formatDuration(time.Duration(p.DurationSeconds*float64(time.Second))),
	)
}

// TimeUntil renders how far in the future the pass rises, relative to now:
// "in 12m", "in 3h", "in 2d", or "now" while the pass is in progress.
func (p Pass) TimeUntil(now time.Time) string {
	if !now.Before(p.RiseTime) {
		if now.Before(p.SetTime) {
			return "now"
		}
		return "passed"
	}

	d := p.RiseTime.Sub(now)
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("in %dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		mins := int(d.Minutes())
		if mins < 1 {
			mins = 1
		}
		return fmt.Sprintf("in %dm", mins)
	}
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if mins == 0 {
		return fmt.Sprintf("%ds", secs)
	}
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%02ds", mins, secs)
}
