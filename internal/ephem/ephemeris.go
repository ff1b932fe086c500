// Package ephem holds precomputed satellite ephemerides and the geometry
// engine that answers point-in-time visibility queries against them.
package ephem

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Point is a single ephemeris sample: an ECI position at a Julian Date.
type Point struct {
	JD  float64
	XKm float64
	YKm float64
	ZKm float64
}

// Ephemeris is a time-sorted series of ECI position samples for one
// satellite, with interpolation between them. Immutable after construction.
type Ephemeris struct {
	points []Point
}

// New builds an Ephemeris from samples, sorting them by Julian Date.
func New(points []Point) *Ephemeris {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].JD < sorted[j].JD })
	return &Ephemeris{points: sorted}
}

// Binary layout: u32 little-endian point count, then per point four f64
// little-endian values (jd, x, y, z). 4 + 32*count bytes total.
const pointSize = 32

// FromBinary decodes the binary ephemeris format.
func FromBinary(data []byte) (*Ephemeris, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("ephemeris data too short: %d bytes", len(data))
	}

	count := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+count*pointSize {
		return nil, fmt.Errorf("ephemeris data truncated: have %d bytes, need %d", len(data), 4+count*pointSize)
	}

	points := make([]Point, 0, count)
	off := 4
	for i := 0; i < count; i++ {
		points = append(points, Point{
			JD:  math.Float64frombits(binary.LittleEndian.Uint64(data[off:])),
			XKm: math.Float64frombits(binary.LittleEndian.Uint64(data[off+8:])),
			YKm: math.Float64frombits(binary.LittleEndian.Uint64(data[off+16:])),
			ZKm: math.Float64frombits(binary.LittleEndian.Uint64(data[off+24:])),
		})
		off += pointSize
	}

	return New(points), nil
}

// ToBinary encodes the ephemeris in the binary format read by FromBinary.
func (e *Ephemeris) ToBinary() []byte {
	buf := make([]byte, 4+len(e.points)*pointSize)
	binary.LittleEndian.PutUint32(buf, uint32(len(e.points)))

	off := 4
	for _, p := range e.points {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(p.JD))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(p.XKm))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(p.YKm))
		binary.LittleEndian.PutUint64(buf[off+24:], math.Float64bits(p.ZKm))
		off += pointSize
	}
	return buf
}

// Len returns the number of samples.
func (e *Ephemeris) Len() int {
	return len(e.points)
}

// Points returns the samples in ascending JD order. The slice is shared;
// callers must not modify it.
func (e *Ephemeris) Points() []Point {
	return e.points
}

// Range reports the Julian Date span covered by the ephemeris.
// ok is false when there are fewer than two samples.
func (e *Ephemeris) Range() (startJD, endJD float64, ok bool) {
	if len(e.points) < 2 {
		return 0, 0, false
	}
	return e.points[0].JD, e.points[len(e.points)-1].JD, true
}

// Covers reports whether jd falls inside the ephemeris span.
func (e *Ephemeris) Covers(jd float64) bool {
	if len(e.points) == 0 {
		return false
	}
	return jd >= e.points[0].JD && jd <= e.points[len(e.points)-1].JD
}

// Interpolate evaluates the satellite's ECI position at jd.
//
// Interior spans use a Catmull-Rom spline over the four surrounding samples,
// which keeps the motion smooth through the sample grid; the outermost spans
// fall back to linear interpolation. ok is false outside the covered range.
func (e *Ephemeris) Interpolate(jd float64) (x, y, z float64, ok bool) {
	if len(e.points) < 2 {
		return 0, 0, 0, false
	}

	idx := sort.Search(len(e.points), func(i int) bool { return e.points[i].JD >= jd })
	if idx < len(e.points) && e.points[idx].JD == jd {
		p := e.points[idx]
		return p.XKm, p.YKm, p.ZKm, true
	}
	if idx == 0 || idx >= len(e.points) {
		return 0, 0, 0, false
	}

	if idx < 2 || idx >= len(e.points)-1 {
		p0, p1 := e.points[idx-1], e.points[idx]
		t := (jd - p0.JD) / (p1.JD - p0.JD)
		return p0.XKm + t*(p1.XKm-p0.XKm),
			p0.YKm + t*(p1.YKm-p0.YKm),
			p0.ZKm + t*(p1.ZKm-p0.ZKm),
			true
	}

	p0, p1, p2, p3 := e.points[idx-2], e.points[idx-1], e.points[idx], e.points[idx+1]
	t := (jd - p1.JD) / (p2.JD - p1.JD)
	t2 := t * t
	t3 := t2 * t

	catmullRom := func(v0, v1, v2, v3 float64) float64 {
		return 0.5 * (2*v1 +
			(-v0+v2)*t +
			(2*v0-5*v1+4*v2-v3)*t2 +
			(-v0+3*v1-3*v2+v3)*t3)
	}

	return catmullRom(p0.XKm, p1.XKm, p2.XKm, p3.XKm),
		catmullRom(p0.YKm, p1.YKm, p2.YKm, p3.YKm),
		catmullRom(p0.ZKm, p1.ZKm, p2.ZKm, p3.ZKm),
		true
}
