package transform

import "math"

// EarthRadiusKm is Earth's mean equatorial radius.
const EarthRadiusKm = 6378.137

// Observer is a ground observer's geodetic location.
// A spherical Earth is assumed for the local-frame rotation, which is
// accurate to a small fraction of a degree for LEO look angles.
type Observer struct {
	LatRad   float64
	LonRad   float64
	HeightKm float64
}

// NewObserver creates an Observer from latitude/longitude in degrees and
// height above sea level in meters.
func NewObserver(latDeg, lonDeg, heightM float64) Observer {
	return Observer{
		LatRad:   latDeg * math.Pi / 180.0,
		LonRad:   lonDeg * math.Pi / 180.0,
		HeightKm: heightM / 1000.0,
	}
}

// LookAngles holds the topocentric direction from an observer to a satellite.
type LookAngles struct {
	AltitudeDeg float64 // 0 = horizon, 90 = zenith
	AzimuthDeg  float64 // 0 = North, measured clockwise, [0, 360)
	RangeKm     float64
}

// ECIToLookAngles computes look angles from an observer to a position given
// in ECI kilometers, for the sidereal time gmst (radians).
//
// The observer's ECI position is derived from local sidereal time, then the
// range vector is projected onto the local East-North-Up frame.
func ECIToLookAngles(obs Observer, gmst, xKm, yKm, zKm float64) LookAngles {
	sinLat := math.Sin(obs.LatRad)
	cosLat := math.Cos(obs.LatRad)

	lst := gmst + obs.LonRad
	sinLST := math.Sin(lst)
	cosLST := math.Cos(lst)

	obsR := EarthRadiusKm + obs.HeightKm
	obsX := obsR * cosLat * cosLST
	obsY := obsR * cosLat * sinLST
	obsZ := obsR * sinLat

	dx := xKm - obsX
	dy := yKm - obsY
	dz := zKm - obsZ
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

	// Unit vectors of the local ENU frame, expressed in ECI.
	east := -dx*sinLST + dy*cosLST
	north := -dx*sinLat*cosLST - dy*sinLat*sinLST + dz*cosLat
	up := dx*cosLat*cosLST + dy*cosLat*sinLST + dz*sinLat

	alt := math.Asin(up / dist)
	az := math.Atan2(east, north)

	azDeg := math.Mod(az*180.0/math.Pi+360.0, 360.0)

	return LookAngles{
		AltitudeDeg: alt * 180.0 / math.Pi,
		AzimuthDeg:  azDeg,
		RangeKm:     dist,
	}
}
