package transform

import "math"

// SunRADec computes the Sun's apparent right ascension and declination
// (radians) for a Julian Date, using the low-precision series from the
// Astronomical Almanac. Accuracy is on the order of 0.01°, which is far
// tighter than the twilight thresholds it feeds.
func SunRADec(jd float64) (raRad, decRad float64) {
	tc := (jd - J2000) / 36525.0

	// Mean longitude and mean anomaly of the Sun (degrees).
	l0 := normDeg(280.46646 + 36000.76983*tc + 0.0003032*tc*tc)
	m := normDeg(357.52911 + 35999.05029*tc - 0.0001537*tc*tc)
	mRad := m * math.Pi / 180.0

	// Equation of center.
	c := (1.914602-0.004817*tc-0.000014*tc*tc)*math.Sin(mRad) +
		(0.019993-0.000101*tc)*math.Sin(2*mRad) +
		0.000289*math.Sin(3*mRad)

	// Apparent longitude, corrected for aberration and nutation.
	omega := 125.04 - 1934.136*tc
	lonApp := l0 + c - 0.00569 - 0.00478*math.Sin(omega*math.Pi/180.0)

	// Obliquity of the ecliptic, with the nutation correction.
	eps := 23.439291 - 0.0130042*tc + 0.00256*math.Cos(omega*math.Pi/180.0)

	lonRad := lonApp * math.Pi / 180.0
	epsRad := eps * math.Pi / 180.0

	raRad = math.Atan2(math.Cos(epsRad)*math.Sin(lonRad), math.Cos(lonRad))
	if raRad < 0 {
		raRad += 2 * math.Pi
	}
	decRad = math.Asin(math.Sin(epsRad) * math.Sin(lonRad))
	return raRad, decRad
}

// SunAltitudeDeg computes the Sun's altitude above the observer's horizon in
// degrees at the given Julian Date.
func SunAltitudeDeg(obs Observer, jd float64) float64 {
	ra, dec := SunRADec(jd)

	// Local hour angle of the Sun.
	h := GMST(jd) + obs.LonRad - ra

	sinAlt := math.Sin(obs.LatRad)*math.Sin(dec) +
		math.Cos(obs.LatRad)*math.Cos(dec)*math.Cos(h)
	return math.Asin(sinAlt) * 180.0 / math.Pi
}

// SunECIUnit returns a geocentric unit vector pointing from Earth toward the
// Sun in ECI coordinates, used by the Earth-shadow test.
func SunECIUnit(jd float64) (x, y, z float64) {
	ra, dec := SunRADec(jd)
	cosDec := math.Cos(dec)
	return cosDec * math.Cos(ra), cosDec * math.Sin(ra), math.Sin(dec)
}

func normDeg(d float64) float64 {
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}
