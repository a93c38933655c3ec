package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestAreaOverlapFractionSelf(t *testing.T) {
	rings := []orb.Ring{square(0, 0, 1)}
	got := AreaOverlapFraction(rings, rings)
	if math.Abs(got-1.0) > 0.05 {
		t.Errorf("self overlap = %.3f, want 1.0 ±0.05", got)
	}
}

func TestAreaOverlapFractionDisjoint(t *testing.T) {
	a := []orb.Ring{square(0, 0, 1)}
	b := []orb.Ring{square(100, 100, 1)}
	if got := AreaOverlapFraction(a, b); got != 0 {
		t.Errorf("disjoint overlap = %v, want exactly 0", got)
	}
}

func TestAreaOverlapFractionHalf(t *testing.T) {
	// Left half of the subject sits inside the boundary.
	subject := []orb.Ring{square(0, 0, 2)}
	boundary := []orb.Ring{square(-2, -1, 3)} // covers x in [-2,1], y in [-1,2]
	got := AreaOverlapFraction(subject, boundary)
	if got < 0.3 || got > 0.7 {
		t.Errorf("half overlap = %.3f, want roughly 0.5", got)
	}
}

func TestAreaOverlapFractionDegenerate(t *testing.T) {
	if got := AreaOverlapFraction(nil, []orb.Ring{square(0, 0, 1)}); got != 0 {
		t.Errorf("empty subject = %v, want 0", got)
	}
	if got := AreaOverlapFraction([]orb.Ring{square(0, 0, 1)}, nil); got != 0 {
		t.Errorf("empty boundary = %v, want 0", got)
	}
}

func TestWithinCountyCentroidWins(t *testing.T) {
	// The zip pokes far out of the county, but its centroid is inside, and
	// the centroid test alone must decide regardless of overlap percentage.
	zip := []orb.Ring{square(0, 0, 1)}
	county := []orb.Ring{square(0.49, 0.49, 5)}
	c, _ := Centroid(zip)
	if !PointInPolygon(c, county) {
		t.Fatal("test setup: centroid must be inside the county")
	}
	if !WithinCounty(zip, county) {
		t.Error("centroid inside county must imply membership")
	}
}

func TestWithinCountyOverlapThreshold(t *testing.T) {
	// Centroid outside, but well over 30% of the zip overlaps.
	zip := []orb.Ring{square(0, 0, 2)}
	county := []orb.Ring{square(0.9, -1, 10)} // covers x >= 0.9
	c, _ := Centroid(zip)
	if PointInPolygon(c, county) {
		t.Fatal("test setup: centroid must be outside the county")
	}
	if !WithinCounty(zip, county) {
		t.Error("zip straddling the county line should still be a member")
	}

	far := []orb.Ring{square(50, 50, 1)}
	if WithinCounty(far, county) {
		t.Error("distant zip must not be a member")
	}
}
