// Package passes predicts visible passes of an Earth-orbiting satellite for a
// fixed observer, by sampling a point-in-time ephemeris oracle.
//
// The oracle carries a shared mutable time cursor: every query repoints it
// and reads geometry for that instant. FindPasses therefore owns the cursor
// for the duration of a search and restores it on every exit path.
package passes

import "time"

// Oracle is the point-in-time geometry source a pass search runs against.
// Implementations must answer queries for whatever instant was last passed
// to SetTime. The engine in internal/ephem is the production implementation;
// tests inject synthetic ones.
type Oracle interface {
	// SetTime repoints the oracle's internal clock. Subsequent geometry
	// queries reflect this instant.
	SetTime(t time.Time)

	// Recompute forces derived geometry to refresh after a time or
	// configuration change.
	Recompute()

	// CurrentJulianDate reports the oracle's time cursor, used to snapshot
	// and restore time state around a search.
	CurrentJulianDate() float64

	// EphemerisRange reports the Julian Date coverage bounds of the loaded
	// orbital data for a satellite. ok is false when no data is loaded.
	EphemerisRange(satellite int) (startJD, endJD float64, ok bool)

	// Instantaneous geometry at the currently set time.
	AboveHorizon(satellite int) bool
	Illuminated(satellite int) bool
	SunAltitude() float64
	DistanceKm(satellite int) float64
	Azimuth(satellite int) float64
}

// VisibilityState is the oracle's geometry for one satellite at one instant.
// It is recomputed fresh for every query and never persisted.
type VisibilityState struct {
	AboveHorizon  bool
	Illuminated   bool
	SunBelowLimit bool
	AltitudeDeg   float64 // distance-based heuristic, see altitudeFromDistance
	AzimuthDeg    float64
	DistanceKm    float64
}

// Visible reports whether the satellite is observable in this state:
// above the horizon, in sunlight, against a dark enough sky.
func (s VisibilityState) Visible() bool {
	return s.AboveHorizon && s.Illuminated && s.SunBelowLimit
}

// Altitude heuristic: map slant range linearly onto [0°, 90°].
// A satellite 400 km away is treated as overhead, one 2300 km away as on the
// horizon. This mirrors how the surrounding system has always scored passes;
// the true topocentric altitude is deliberately not substituted here.
const (
	overheadDistanceKm = 400.0
	horizonDistanceKm  = 2300.0
)

func altitudeFromDistance(distKm float64) float64 {
	alt := 90.0 * (horizonDistanceKm - distKm) / (horizonDistanceKm - overheadDistanceKm)
	if alt < 0 {
		return 0
	}
	if alt > 90 {
		return 90
	}
	return alt
}

// queryState repoints the oracle to t and reads the satellite's state.
func queryState(o Oracle, satellite int, sunLimitDeg float64, t time.Time) VisibilityState {
	o.SetTime(t)
	dist := o.DistanceKm(satellite)
	return VisibilityState{
		AboveHorizon:  o.AboveHorizon(satellite),
		Illuminated:   o.Illuminated(satellite),
		SunBelowLimit: o.SunAltitude() < sunLimitDeg,
		AltitudeDeg:   altitudeFromDistance(dist),
		AzimuthDeg:    o.Azimuth(satellite),
		DistanceKm:    dist,
	}
}
