package passes

import "time"

// Default search parameters.
const (
	DefaultMinAltitude      = 10.0 // degrees
	DefaultMaxPasses        = 10
	DefaultSunAltitudeLimit = -6.0 // civil twilight
)

// SearchOptions configures one pass search. The zero value is not directly
// usable; start from DefaultOptions and override fields.
type SearchOptions struct {
	// MinAltitude filters out passes whose peak altitude never reaches this
	// many degrees.
	MinAltitude float64

	// MaxPasses caps the number of passes returned.
	MaxPasses int

	// SunAltitudeLimit is the Sun altitude (degrees) below which the sky is
	// considered dark enough. −6° is civil twilight.
	SunAltitudeLimit float64

	// Satellite is the oracle's satellite index to search.
	Satellite int

	// Now anchors the search window. Zero means the wall clock, a fixed
	// value makes a search reproducible.
	Now time.Time
}

// DefaultOptions returns the standard search configuration: passes peaking
// above 10°, at most 10 of them, sky darker than civil twilight, satellite 0.
func DefaultOptions() SearchOptions {
	return SearchOptions{
		MinAltitude:      DefaultMinAltitude,
		MaxPasses:        DefaultMaxPasses,
		SunAltitudeLimit: DefaultSunAltitudeLimit,
	}
}

func (o SearchOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

func (o SearchOptions) maxPasses() int {
	if o.MaxPasses <= 0 {
		return DefaultMaxPasses
	}
	return o.MaxPasses
}
