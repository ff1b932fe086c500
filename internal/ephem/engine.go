package ephem

import (
	"math"
	"time"

	"github.com/skywatch/overpass/internal/passes"
	"github.com/skywatch/overpass/internal/transform"
)

// shadowRadiusFactor widens the Earth-shadow cylinder slightly to absorb the
// penumbra, where the satellite is already too dim to spot.
const shadowRadiusFactor = 1.02

// satState is the derived geometry for one satellite at the engine's current
// time. Recomputed whenever the time cursor moves; never persisted.
type satState struct {
	valid       bool // jd inside ephemeris coverage
	illuminated bool
	look        transform.LookAngles
}

// Engine answers point-in-time geometry queries for a fixed observer over a
// set of loaded ephemerides. It implements passes.Oracle.
//
// The engine carries a single mutable time cursor shared by all queries, so
// it is not safe for concurrent use: a pass search must run to completion
// before any other caller touches the same instance.
type Engine struct {
	observer transform.Observer
	sats     []*Ephemeris

	jd     float64
	stale  bool
	states []satState
	sunAlt float64
}

var _ passes.Oracle = (*Engine)(nil)

// NewEngine creates an engine for the observer over the given ephemerides,
// indexed in the order supplied. The cursor starts at the current wall time.
func NewEngine(observer transform.Observer, sats ...*Ephemeris) *Engine {
	e := &Engine{
		observer: observer,
		sats:     sats,
		states:   make([]satState, len(sats)),
	}
	e.SetTime(time.Now().UTC())
	return e
}

// SetTime repoints the engine's clock. Derived geometry refreshes lazily on
// the next query, or eagerly via Recompute.
func (e *Engine) SetTime(t time.Time) {
	e.jd = transform.JulianDate(t)
	e.stale = true
}

// Recompute refreshes all derived geometry for the current time.
func (e *Engine) Recompute() {
	e.compute()
}

// CurrentJulianDate reports the engine's time cursor.
func (e *Engine) CurrentJulianDate() float64 {
	return e.jd
}

// EphemerisRange reports the coverage bounds for a satellite index.
func (e *Engine) EphemerisRange(satellite int) (startJD, endJD float64, ok bool) {
	if satellite < 0 || satellite >= len(e.sats) || e.sats[satellite] == nil {
		return 0, 0, false
	}
	return e.sats[satellite].Range()
}

// AboveHorizon reports whether the satellite is above the observer's horizon
// at the current time. False when the time is outside ephemeris coverage.
func (e *Engine) AboveHorizon(satellite int) bool {
	st := e.state(satellite)
	return st.valid && st.look.AltitudeDeg > 0
}

// Illuminated reports whether the satellite is in sunlight at the current time.
func (e *Engine) Illuminated(satellite int) bool {
	st := e.state(satellite)
	return st.valid && st.illuminated
}

// SunAltitude reports the Sun's altitude above the observer's horizon in degrees.
func (e *Engine) SunAltitude() float64 {
	e.ensure()
	return e.sunAlt
}

// DistanceKm reports the slant range from observer to satellite in km.
func (e *Engine) DistanceKm(satellite int) float64 {
	st := e.state(satellite)
	if !st.valid {
		return 0
	}
	return st.look.RangeKm
}

// Azimuth reports the satellite's azimuth in degrees, 0 = North, clockwise.
func (e *Engine) Azimuth(satellite int) float64 {
	st := e.state(satellite)
	if !st.valid {
		return 0
	}
	return st.look.AzimuthDeg
}

// Altitude reports the satellite's true topocentric altitude in degrees.
// Not part of the passes.Oracle contract, which derives a heuristic altitude
// from distance, but exposed for state inspection endpoints.
func (e *Engine) Altitude(satellite int) float64 {
	st := e.state(satellite)
	if !st.valid {
		return -90
	}
	return st.look.AltitudeDeg
}

func (e *Engine) state(satellite int) satState {
	if satellite < 0 || satellite >= len(e.sats) {
		return satState{}
	}
	e.ensure()
	return e.states[satellite]
}

func (e *Engine) ensure() {
	if e.stale {
		e.compute()
	}
}

func (e *Engine) compute() {
	gmst := transform.GMST(e.jd)
	sx, sy, sz := transform.SunECIUnit(e.jd)
	e.sunAlt = transform.SunAltitudeDeg(e.observer, e.jd)

	for i, eph := range e.sats {
		if eph == nil {
			e.states[i] = satState{}
			continue
		}
		x, y, z, ok := eph.Interpolate(e.jd)
		if !ok {
			e.states[i] = satState{}
			continue
		}
		e.states[i] = satState{
			valid:       true,
			illuminated: !inEarthShadow(x, y, z, sx, sy, sz),
			look:        transform.ECIToLookAngles(e.observer, gmst, x, y, z),
		}
	}

	e.stale = false
}

// inEarthShadow applies the cylindrical shadow model: the satellite is
// eclipsed when it sits behind Earth relative to the Sun and within the
// shadow cylinder's radius of the Earth-Sun axis.
func inEarthShadow(x, y, z, sunX, sunY, sunZ float64) bool {
	// Projection of the satellite position onto the Sun direction.
	proj := x*sunX + y*sunY + z*sunZ
	if proj >= 0 {
		return false // on the Sun-facing side
	}

	// Perpendicular distance from the Earth-Sun axis.
	cx := y*sunZ - z*sunY
	cy := z*sunX - x*sunZ
	cz := x*sunY - y*sunX
	perp := math.Sqrt(cx*cx + cy*cy + cz*cz)

	return perp < transform.EarthRadiusKm*shadowRadiusFactor
}
