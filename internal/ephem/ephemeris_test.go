package ephem

import (
	"math"
	"testing"
)

func TestBinaryRoundTrip(t *testing.T) {
	in := New([]Point{
		{JD: 2460000.0, XKm: 6800, YKm: 0, ZKm: 0},
		{JD: 2460000.5, XKm: 4800, YKm: 4800, ZKm: 100},
		{JD: 2460001.0, XKm: 0, YKm: 6800, ZKm: 0},
	})

	out, err := FromBinary(in.ToBinary())
	if err != nil {
		t.Fatalf("FromBinary: %v", err)
	}
	if out.Len() != in.Len() {
		t.Fatalf("point count = %d, want %d", out.Len(), in.Len())
	}
	for i := range in.points {
		if in.points[i] != out.points[i] {
			t.Errorf("point %d: %+v != %+v", i, out.points[i], in.points[i])
		}
	}
}

func TestFromBinaryTruncated(t *testing.T) {
	if _, err := FromBinary([]byte{1, 2}); err == nil {
		t.Error("expected error for short header")
	}

	// Claims 2 points but carries only one.
	full := New([]Point{
		{JD: 2460000.0, XKm: 6800},
		{JD: 2460001.0, YKm: 6800},
	}).ToBinary()
	if _, err := FromBinary(full[:len(full)-pointSize]); err == nil {
		t.Error("expected error for truncated body")
	}
}

func TestInterpolateLinearMidpoint(t *testing.T) {
	// With only two points the interpolation is linear.
	eph := New([]Point{
		{JD: 2460000.0, XKm: 6800, YKm: 0, ZKm: 0},
		{JD: 2460001.0, XKm: 0, YKm: 6800, ZKm: 0},
	})

	x, y, z, ok := eph.Interpolate(2460000.5)
	if !ok {
		t.Fatal("midpoint should be covered")
	}
	if math.Abs(x-3400) > 1 || math.Abs(y-3400) > 1 || math.Abs(z) > 1 {
		t.Errorf("midpoint = (%.1f, %.1f, %.1f), want (3400, 3400, 0)", x, y, z)
	}
}

func TestInterpolateExactSample(t *testing.T) {
	eph := New([]Point{
		{JD: 2460000.0, XKm: 1000},
		{JD: 2460000.5, XKm: 2000},
		{JD: 2460001.0, XKm: 3000},
	})

	x, _, _, ok := eph.Interpolate(2460000.5)
	if !ok || x != 2000 {
		t.Errorf("exact sample lookup = %.1f ok=%v, want 2000", x, ok)
	}
}

func TestInterpolateCatmullRomTracksSmoothMotion(t *testing.T) {
	// Sample a circular orbit at 4 points/quarter and check that spline
	// evaluation between samples stays close to the true circle.
	const r = 6800.0
	var points []Point
	for i := 0; i <= 16; i++ {
		theta := float64(i) * 2 * math.Pi / 16
		points = append(points, Point{
			JD:  2460000.0 + float64(i)/16.0,
			XKm: r * math.Cos(theta),
			YKm: r * math.Sin(theta),
		})
	}
	eph := New(points)

	for jd := 2460000.2; jd < 2460000.8; jd += 0.013 {
		x, y, _, ok := eph.Interpolate(jd)
		if !ok {
			t.Fatalf("jd %.3f should be covered", jd)
		}
		radius := math.Sqrt(x*x + y*y)
		if math.Abs(radius-r) > r*0.01 {
			t.Errorf("jd %.3f: radius %.1f deviates more than 1%% from %.1f", jd, radius, r)
		}
	}
}

func TestInterpolateOutsideRange(t *testing.T) {
	eph := New([]Point{
		{JD: 2460000.0, XKm: 6800},
		{JD: 2460001.0, YKm: 6800},
	})

	if _, _, _, ok := eph.Interpolate(2459999.0); ok {
		t.Error("before-range interpolation should fail")
	}
	if _, _, _, ok := eph.Interpolate(2460002.0); ok {
		t.Error("after-range interpolation should fail")
	}
}

func TestCoverageAndRange(t *testing.T) {
	eph := New([]Point{
		{JD: 2460001.0, XKm: 0, YKm: 6800},
		{JD: 2460000.0, XKm: 6800}, // out of order on purpose: New must sort
	})

	start, end, ok := eph.Range()
	if !ok || start != 2460000.0 || end != 2460001.0 {
		t.Fatalf("Range() = (%.1f, %.1f, %v), want (2460000, 2460001, true)", start, end, ok)
	}

	for _, tt := range []struct {
		jd   float64
		want bool
	}{
		{2460000.0, true},
		{2460000.5, true},
		{2460001.0, true},
		{2459999.0, false},
		{2460002.0, false},
	} {
		if got := eph.Covers(tt.jd); got != tt.want {
			t.Errorf("Covers(%.1f) = %v, want %v", tt.jd, got, tt.want)
		}
	}

	if _, _, ok := New(nil).Range(); ok {
		t.Error("empty ephemeris should report no range")
	}
	if _, _, ok := New([]Point{{JD: 2460000.0}}).Range(); ok {
		t.Error("single-point ephemeris should report no range")
	}
}
