package passes

import (
	"context"
	"time"

	"github.com/skywatch/overpass/internal/transform"
)

const (
	// coarseStep is the scanner's stride. A LEO pass lasts several minutes,
	// so a 10-minute stride cannot step over an entire visibility window's
	// rise and set pair without seeing at least one visible sample only for
	// passes shorter than the stride, which the refiner does not recover.
	coarseStep = 10 * time.Minute

	// refineFloor is the bisection precision: good enough for a "when do I
	// go outside" answer, and it bounds each transition at ~20 oracle
	// queries.
	refineFloor = 30 * time.Second

	// peakGridStep is the sampling interval of the max-altitude search.
	peakGridStep = 30 * time.Second

	// belowHorizonAltitude stands in for altitude while the satellite is
	// below the horizon, so peak tracking never picks such a sample.
	belowHorizonAltitude = -10.0
)

// timeScope snapshots the oracle's time cursor so it can be restored no
// matter how the search exits. The cursor is process-wide shared state
// consumed by other oracle users, so leaking a scan time out of FindPasses
// would corrupt them.
type timeScope struct {
	o       Oracle
	savedJD float64
}

func beginTimeScope(o Oracle) *timeScope {
	return &timeScope{o: o, savedJD: o.CurrentJulianDate()}
}

func (s *timeScope) restore() {
	s.o.SetTime(transform.TimeFromJulian(s.savedJD))
	s.o.Recompute()
}

// FindPasses predicts upcoming visible passes of one satellite.
//
// The search runs from opts.Now (or the ephemeris start, whichever is later)
// to the end of the oracle's ephemeris coverage. Passes are returned in rise
// order. A missing or malformed ephemeris range yields an empty result; no
// errors are raised. Cancelling ctx stops the scan and returns the passes
// found so far.
//
// The oracle's time cursor is saved on entry and restored (with a forced
// recompute) on every exit path, including panics propagating out of oracle
// queries.
func FindPasses(ctx context.Context, o Oracle, opts SearchOptions) []Pass {
	startJD, endJD, ok := o.EphemerisRange(opts.Satellite)
	if !ok {
		return nil
	}

	scope := beginTimeScope(o)
	defer scope.restore()

	searchStart := opts.now()
	if ephStart := transform.TimeFromJulian(startJD); searchStart.Before(ephStart) {
		searchStart = ephStart
	}
	searchEnd := transform.TimeFromJulian(endJD)
	if !searchStart.Before(searchEnd) {
		return nil
	}

	return scan(ctx, o, opts, searchStart, searchEnd)
}

// scan walks the search interval in coarse steps, classifying visibility at
// each step and handing every state transition to the bisection refiner.
// A rise whose matching set falls beyond searchEnd is dropped: the window is
// incomplete and no peak or duration can be reported for it.
func scan(ctx context.Context, o Oracle, opts SearchOptions, searchStart, searchEnd time.Time) []Pass {
	var (
		found    []Pass
		riseTime time.Time
		inPass   bool
	)
	limit := opts.SunAltitudeLimit
	sat := opts.Satellite
	maxPasses := opts.maxPasses()

	prevVisible := queryState(o, sat, limit, searchStart).Visible()

	for cursor := searchStart.Add(coarseStep); !cursor.After(searchEnd); cursor = cursor.Add(coarseStep) {
		if ctx.Err() != nil {
			break
		}

		visible := queryState(o, sat, limit, cursor).Visible()

		switch {
		case visible && !prevVisible:
			riseTime = refineTransition(o, sat, limit, cursor.Add(-coarseStep), cursor, true)
			inPass = true

		case !visible && prevVisible && inPass:
			setTime := refineTransition(o, sat, limit, cursor.Add(-coarseStep), cursor, false)
			if p, ok := assemble(o, opts, riseTime, setTime); ok {
				found = append(found, p)
				if len(found) >= maxPasses {
					return found
				}
			}
			inPass = false
		}

		prevVisible = visible
	}

	return found
}

// refineTransition bisects a bracket known to straddle a visibility
// transition down to refineFloor. For a rise the visible half is discarded
// from above and hi is returned; for a set the visible half is discarded
// from below and lo is returned. Both choices bias toward the not-visible
// side, so the reported rise is never early and the reported set never late.
func refineTransition(o Oracle, sat int, sunLimitDeg float64, lo, hi time.Time, findRise bool) time.Time {
	for hi.Sub(lo) > refineFloor {
		mid := lo.Add(hi.Sub(lo) / 2)
		visible := queryState(o, sat, sunLimitDeg, mid).Visible()

		if findRise {
			if visible {
				hi = mid
			} else {
				lo = mid
			}
		} else {
			if visible {
				lo = mid
			} else {
				hi = mid
			}
		}
	}

	if findRise {
		return hi
	}
	return lo
}

// findPeak samples the confirmed window on a uniform 30-second grid and
// returns the highest-altitude sample. Samples stay strictly inside
// (rise, set): a boundary sample would tie with the rise or set when the
// altitude is monotone across the window and break the rise < max < set
// ordering. A window shorter than one grid step is sampled at its midpoint.
// The grid maximum is reported as-is; no further refinement is applied.
func findPeak(o Oracle, sat int, sunLimitDeg float64, rise, set time.Time) (t time.Time, altDeg, azDeg float64) {
	first := rise.Add(peakGridStep)
	if !first.Before(set) {
		first = rise.Add(set.Sub(rise) / 2)
	}

	bestAlt := belowHorizonAltitude
	bestT := first
	bestAz := 0.0

	for s := first; s.Before(set); s = s.Add(peakGridStep) {
		st := queryState(o, sat, sunLimitDeg, s)
		alt := belowHorizonAltitude
		if st.AboveHorizon {
			alt = st.AltitudeDeg
		}
		if alt > bestAlt {
			bestAlt = alt
			bestT = s
			bestAz = st.AzimuthDeg
		}
	}

	return bestT, bestAlt, bestAz
}

// assemble turns a refined (rise, set) pair into a Pass, or reports false
// when the window's peak altitude does not clear the configured minimum.
// Rejected windows do not count toward MaxPasses.
func assemble(o Oracle, opts SearchOptions, rise, set time.Time) (Pass, bool) {
	maxT, maxAlt, maxAz := findPeak(o, opts.Satellite, opts.SunAltitudeLimit, rise, set)
	if maxAlt < opts.MinAltitude {
		return Pass{}, false
	}

	riseState := queryState(o, opts.Satellite, opts.SunAltitudeLimit, rise)
	setState := queryState(o, opts.Satellite, opts.SunAltitudeLimit, set)

	return Pass{
		RiseTime:        rise,
		RiseAzimuth:     riseState.AzimuthDeg,
		RiseDirection:   AzimuthToDirection(riseState.AzimuthDeg),
		MaxTime:         maxT,
		MaxAltitude:     maxAlt,
		MaxAzimuth:      maxAz,
		SetTime:         set,
		SetAzimuth:      setState.AzimuthDeg,
		SetDirection:    AzimuthToDirection(setState.AzimuthDeg),
		DurationSeconds: set.Sub(rise).Seconds(),
		Magnitude:       EstimateMagnitude(maxAlt),
	}, true
}
