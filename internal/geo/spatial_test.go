package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func square(minX, minY, size float64) orb.Ring {
	return orb.Ring{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
		{minX, minY},
	}
}

func TestCentroid(t *testing.T) {
	rings := []orb.Ring{square(0, 0, 1)}
	c, ok := Centroid(rings)
	if !ok {
		t.Fatal("expected a centroid for a square")
	}
	// Mean over 5 vertices (the ring is closed, so (0,0) counts twice).
	if c[0] < 0.3 || c[0] > 0.7 || c[1] < 0.3 || c[1] > 0.7 {
		t.Errorf("centroid %v not near the square center", c)
	}

	if _, ok := Centroid(nil); ok {
		t.Error("expected no centroid for empty input")
	}
}

func TestPointInPolygonConvex(t *testing.T) {
	cases := []struct {
		name  string
		rings []orb.Ring
	}{
		{"unit square", []orb.Ring{square(0, 0, 1)}},
		{"offset square", []orb.Ring{square(-81.7, 30.3, 0.2)}},
		{"triangle", []orb.Ring{{{0, 0}, {4, 0}, {2, 3}, {0, 0}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := Centroid(tc.rings)
			if !ok {
				t.Fatal("no centroid")
			}
			if !PointInPolygon(c, tc.rings) {
				t.Errorf("centroid %v should be inside", c)
			}

			// A point translated 10x the bounding-box diagonal away is out.
			bound, _ := BoundOf(tc.rings)
			diag := Distance(bound.Min, bound.Max)
			far := orb.Point{c[0] + 10*diag, c[1] + 10*diag}
			if PointInPolygon(far, tc.rings) {
				t.Errorf("far point %v should be outside", far)
			}
		})
	}
}

func TestPointInPolygonHole(t *testing.T) {
	rings := []orb.Ring{
		square(0, 0, 10),
		square(4, 4, 2), // hole in the middle
	}

	if !PointInPolygon(orb.Point{2, 2}, rings) {
		t.Error("point between outer ring and hole should be inside")
	}
	if PointInPolygon(orb.Point{5, 5}, rings) {
		t.Error("point inside the hole should be excluded")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(orb.Point{0, 0}, nil) {
		t.Error("no rings should never contain a point")
	}
	two := []orb.Ring{{{0, 0}, {1, 1}}}
	if PointInPolygon(orb.Point{0.5, 0.5}, two) {
		t.Error("fewer than 3 vertices should report false")
	}
}
