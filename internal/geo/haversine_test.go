package geo

import (
	"math"
	"testing"
)

func TestMetersToDegreesLat(t *testing.T) {
	// 111_320m is the definitional meters-per-degree-of-latitude this
	// conversion is built on.
	d := MetersToDegreesLat(111_320)
	if diff := math.Abs(d - 1.0); diff > 1e-9 {
		t.Errorf("MetersToDegreesLat(111320) = %f, want ~1.0 degree", d)
	}
}

func TestMetersToDegreesLonScalesWithLatitude(t *testing.T) {
	// A fixed meter offset spans more degrees of longitude the farther it
	// is from the equator, scaling by 1/cos(lat); at 60 degrees that's a
	// factor of 2.
	atEquator := MetersToDegreesLon(1000, 0)
	at60 := MetersToDegreesLon(1000, 60)
	ratio := at60 / atEquator
	if diff := math.Abs(ratio - 2.0); diff > 1e-3 {
		t.Errorf("MetersToDegreesLon(1000, 60) / MetersToDegreesLon(1000, 0) = %f, want ~2.0", ratio)
	}
}

func TestMetersToDegreesLonNearPole(t *testing.T) {
	// Must not divide by ~zero near the poles.
	d := MetersToDegreesLon(1000, 89.9999)
	if math.IsInf(d, 0) || math.IsNaN(d) {
		t.Errorf("MetersToDegreesLon near pole = %f, want finite", d)
	}
}
