package transform

import (
	"math"
	"time"
)

const (
	// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
	J2000 = 2451545.0

	// unixEpochJD is the Julian Date of the Unix epoch (January 1, 1970, 00:00:00 UTC).
	unixEpochJD = 2440587.5

	msPerDay = 86400000.0
)

// JulianDate converts a time.Time to a Julian Date.
// The conversion goes through Unix milliseconds, which keeps it exactly
// invertible by TimeFromJulian at millisecond resolution.
func JulianDate(t time.Time) float64 {
	return float64(t.UnixMilli())/msPerDay + unixEpochJD
}

// TimeFromJulian converts a Julian Date back to a UTC time.Time,
// rounded to the nearest millisecond.
func TimeFromJulian(jd float64) time.Time {
	ms := (jd - unixEpochJD) * msPerDay
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// GMST computes Greenwich Mean Sidereal Time in radians for a Julian Date (UT1≈UTC).
// IAU-82 model, Vallado "Fundamentals of Astrodynamics" Eq 3-47:
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries from J2000.0 and the result is in seconds of time.
func GMST(jd float64) float64 {
	tc := (jd - J2000) / 36525.0

	// 876600h expressed in seconds is 3155760000.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tc +
		0.093104*tc*tc -
		6.2e-6*tc*tc*tc

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
