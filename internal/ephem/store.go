package ephem

import (
	"sync/atomic"
	"time"
)

// Dataset is one generation run's output: ephemerides index-aligned with the
// satellite catalog, plus provenance. Immutable once stored.
type Dataset struct {
	Source      string
	GeneratedAt time.Time
	Ephemerides []*Ephemeris
}

// Store provides thread-safe access to the current ephemeris dataset.
// Readers get a consistent snapshot; writers replace the whole dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been generated yet.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// AgeSeconds returns the age of the current dataset in seconds, or -1 when
// no dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.GeneratedAt).Seconds()
}

// TotalPoints returns the number of ephemeris samples across all satellites.
func (s *Store) TotalPoints() int {
	ds := s.dataset.Load()
	if ds == nil {
		return 0
	}
	n := 0
	for _, e := range ds.Ephemerides {
		if e != nil {
			n += e.Len()
		}
	}
	return n
}
