// Package catalog manages the satellite catalog: the built-in satellite
// set, TLE retrieval from Celestrak, parsing, and on-disk caching.
package catalog

import (
	"fmt"
	"time"
)

// Satellite describes one trackable satellite.
type Satellite struct {
	NoradID   int    `json:"norad_id"`
	ShortName string `json:"short_name"`
	FullName  string `json:"full_name"`
}

// Builtin is the default satellite set, in stable index order. Pass
// queries address satellites by their position in this slice unless a
// custom catalog is configured.
var Builtin = []Satellite{
	{NoradID: 25544, ShortName: "ISS", FullName: "ISS (International Space Station)"},
	{NoradID: 20580, ShortName: "Hubble", FullName: "Hubble Space Telescope"},
}

// SourceURL returns the Celestrak GP query URL for a single satellite.
func SourceURL(noradID int) string {
	return fmt.Sprintf("https://celestrak.org/NORAD/elements/gp.php?CATNR=%d&FORMAT=tle", noradID)
}

// ByNoradID looks a satellite up in sats by its NORAD ID.
func ByNoradID(sats []Satellite, noradID int) (Satellite, bool) {
	for _, s := range sats {
		if s.NoradID == noradID {
			return s, true
		}
	}
	return Satellite{}, false
}

// IndexOf returns the position of noradID in sats, or -1.
func IndexOf(sats []Satellite, noradID int) int {
	for i, s := range sats {
		if s.NoradID == noradID {
			return i
		}
	}
	return -1
}

// Entry is a parsed two-line element set for one satellite.
type Entry struct {
	NoradID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange is the min/max element-set epoch across a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is one complete catalog refresh.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Entries    []Entry
}

// ComputeEpochRange derives the epoch range of a set of entries.
func ComputeEpochRange(entries []Entry) EpochRange {
	var r EpochRange
	for i, e := range entries {
		if i == 0 {
			r.Min, r.Max = e.Epoch, e.Epoch
			continue
		}
		if e.Epoch.Before(r.Min) {
			r.Min = e.Epoch
		}
		if e.Epoch.After(r.Max) {
			r.Max = e.Epoch
		}
	}
	return r
}
