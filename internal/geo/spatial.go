package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Centroid returns the arithmetic mean of every vertex across every ring.
// This is a vertex centroid, not an area centroid; it is what the
// membership heuristics below are calibrated against. Returns false when
// there are no vertices.
func Centroid(rings []orb.Ring) (orb.Point, bool) {
	var sumX, sumY float64
	n := 0
	for _, ring := range rings {
		for _, pt := range ring {
			sumX += pt[0]
			sumY += pt[1]
			n++
		}
	}
	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sumX / float64(n), sumY / float64(n)}, true
}

// PointInPolygon ray-casts against the first ring (the outer boundary).
// When the point is inside the outer ring, any remaining rings are treated
// as holes and exclude the point. Fewer than 3 vertices in the outer ring
// is degenerate and reports false.
func PointInPolygon(pt orb.Point, rings []orb.Ring) bool {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return false
	}
	if !rayCast(pt, rings[0]) {
		return false
	}
	for _, hole := range rings[1:] {
		if len(hole) >= 3 && rayCast(pt, hole) {
			return false
		}
	}
	return true
}

// rayCast is the classic even-odd crossing test against one ring.
func rayCast(pt orb.Point, ring orb.Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt[1]) != (yj > pt[1]) &&
			pt[0] < (xj-xi)*(pt[1]-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Distance is the planar euclidean distance between two points, in
// coordinate-degree units. Good enough for the proximity heuristics here;
// nothing in the engine needs geodesic accuracy.
func Distance(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}
