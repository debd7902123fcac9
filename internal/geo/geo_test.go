package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tol              float64
	}{
		{"same point", 37, -122, 37, -122, 0, 1e-9},
		{"one millidegree north", 37, -122, 37.001, -122, 111.19, 0.05},
		{"one degree on equator", 0, 0, 0, 1, 111194.9, 1},
	}
	for _, c := range cases {
		got := Distance(c.lat1, c.lon1, c.lat2, c.lon2)
		if math.Abs(got-c.want) > c.tol {
			t.Errorf("%s: Distance=%f, want %f±%f", c.name, got, c.want, c.tol)
		}
	}
}

func TestHeading(t *testing.T) {
	cases := []struct {
		name     string
		toLat    float64
		toLon    float64
		want     float64
		tolerant float64
	}{
		{"north", 0.001, 0, 0, 1e-6},
		{"east", 0, 0.001, 90, 1e-6},
		{"south", -0.001, 0, 180, 1e-6},
		{"west", 0, -0.001, 270, 1e-6},
	}
	for _, c := range cases {
		got := Heading(0, 0, c.toLat, c.toLon)
		if math.Abs(got-c.want) > c.tolerant {
			t.Errorf("%s: Heading=%f, want %f", c.name, got, c.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("%s: heading %f out of range", c.name, got)
		}
	}
}

func TestMeterConversions(t *testing.T) {
	if got := MetersToLatDegrees(111000); got != 1 {
		t.Errorf("MetersToLatDegrees(111000)=%f, want 1", got)
	}
	if got := MetersToLngDegrees(111000, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("MetersToLngDegrees at equator=%f, want 1", got)
	}
	if got := MetersToLngDegrees(111000, 60); math.Abs(got-2) > 1e-9 {
		t.Errorf("MetersToLngDegrees at 60deg=%f, want 2", got)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	lat, lon := Offset(37.0, -122.0, 100, 0)
	if d := Distance(37.0, -122.0, lat, lon); math.Abs(d-100) > 0.5 {
		t.Fatalf("offset 100m north measured %f", d)
	}
}

func TestJitterBounded(t *testing.T) {
	vals := []float64{0, 0.999999, 0.5, 0.25}
	i := 0
	next := func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
	for n := 0; n < 4; n++ {
		lat, lon := Jitter(37, -122, 5, next)
		if d := Distance(37, -122, lat, lon); d > 5*math.Sqrt2+0.1 {
			t.Fatalf("jitter moved %f meters, want <= %f", d, 5*math.Sqrt2)
		}
	}
}
