package ephem

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skywatch/overpass/internal/transform"
)

// DefaultSampleStep is the spacing of generated ephemeris samples. One
// minute keeps Catmull-Rom interpolation error for LEO motion far below the
// scanner's 30-second precision floor.
const DefaultSampleStep = time.Minute

// TLE is the two-line element input to ephemeris generation.
type TLE struct {
	NoradID int
	Name    string
	Line1   string
	Line2   string
}

// Generate builds an Ephemeris by sampling SGP4 propagation of a TLE from
// start to end at the given step.
//
// SGP4 output is in the TEME frame; it is stored as-is in place of ECI
// J2000. The frames differ by well under a tenth of a degree, which is
// negligible against the distance heuristic and twilight thresholds the
// samples feed.
func Generate(t TLE, start, end time.Time, step time.Duration) (*Ephemeris, error) {
	if err := validateTLE(t); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", t.NoradID, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("empty generation window [%v, %v]", start, end)
	}
	if step <= 0 {
		step = DefaultSampleStep
	}

	sat := satellite.TLEToSat(t.Line1, t.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", t.NoradID, sat.Error, sat.ErrorStr)
	}

	points := make([]Point, 0, int(end.Sub(start)/step)+1)
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		u := ts.UTC()
		pos, _ := satellite.Propagate(sat, u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())

		// Propagate reports failures only through its output, so reject
		// NaN/Inf and positions outside any plausible Earth orbit.
		mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
		if math.IsNaN(mag) || math.IsInf(mag, 0) || mag < 6200 || mag > 50000 {
			return nil, fmt.Errorf("sgp4 propagation failed for NORAD %d at %v: position magnitude %.1f km", t.NoradID, u, mag)
		}

		points = append(points, Point{
			JD:  transform.JulianDate(u),
			XKm: pos.X,
			YKm: pos.Y,
			ZKm: pos.Z,
		})
	}

	return New(points), nil
}

func validateTLE(t TLE) error {
	line1 := strings.TrimSpace(t.Line1)
	line2 := strings.TrimSpace(t.Line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", line2[0])
	}
	return nil
}

// GenerateBatch generates ephemerides for a set of TLEs concurrently,
// bounded by a semaphore. The result is index-aligned with the input; a
// satellite whose generation fails gets a nil entry and a warning log, so
// one bad TLE does not sink the rest of the catalog.
func GenerateBatch(ctx context.Context, tles []TLE, start, end time.Time, step time.Duration, logger *slog.Logger) []*Ephemeris {
	out := make([]*Ephemeris, len(tles))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, t := range tles {
		wg.Add(1)
		go func(idx int, t TLE) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			eph, err := Generate(t, start, end, step)
			if err != nil {
				logger.Warn("ephemeris generation failed",
					"norad_id", t.NoradID,
					"name", t.Name,
					"error", err,
				)
				return
			}
			out[idx] = eph
		}(i, t)
	}

	wg.Wait()
	return out
}
