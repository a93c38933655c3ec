package geo

import "github.com/paulmach/orb"

const (
	// vertexSampleTarget is the approximate number of outer-ring vertices
	// sampled in part A of the overlap estimate.
	vertexSampleTarget = 50

	// gridDim is the grid laid over the subject's bounding box in part B.
	gridDim = 11

	// countyOverlapThreshold is deliberately low so zip codes straddling a
	// county line still count as members of both counties.
	countyOverlapThreshold = 0.30
)

// AreaOverlapFraction estimates the fraction of the subject polygon's area
// that lies inside the boundary polygon, in [0,1]. It is a two-part
// sampler, not exact clipping:
//
// Part A walks every Nth vertex of the subject's outer ring (N chosen so
// roughly 50 samples are taken regardless of ring size) and tests each
// against the boundary. Part B lays an 11x11 grid over the subject's
// bounding box; grid points inside the subject are tested against the
// boundary. The result is inside/tested over both parts, 0 when nothing
// was tested.
//
// Expected error is within ±0.05 for well-formed convex-ish shapes and
// coarser for highly irregular ones.
func AreaOverlapFraction(subject, boundary []orb.Ring) float64 {
	if len(subject) == 0 || len(subject[0]) == 0 || len(boundary) == 0 {
		return 0
	}

	tested, inside := 0, 0

	// Boundary vertices are ambiguous under ray-casting, so each sample is
	// nudged a hair toward the subject centroid. Keeps a polygon sampled
	// against itself at ~1.0 instead of biased low.
	center, hasCenter := Centroid(subject)

	outer := subject[0]
	step := len(outer) / vertexSampleTarget
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(outer); i += step {
		pt := outer[i]
		if hasCenter {
			pt = orb.Point{
				pt[0] + (center[0]-pt[0])*1e-3,
				pt[1] + (center[1]-pt[1])*1e-3,
			}
		}
		tested++
		if PointInPolygon(pt, boundary) {
			inside++
		}
	}

	if bound, ok := BoundOf(subject); ok {
		dx := (bound.Max[0] - bound.Min[0]) / float64(gridDim-1)
		dy := (bound.Max[1] - bound.Min[1]) / float64(gridDim-1)
		for ix := 0; ix < gridDim; ix++ {
			for iy := 0; iy < gridDim; iy++ {
				pt := orb.Point{bound.Min[0] + dx*float64(ix), bound.Min[1] + dy*float64(iy)}
				if !PointInPolygon(pt, subject) {
					continue
				}
				tested++
				if PointInPolygon(pt, boundary) {
					inside++
				}
			}
		}
	}

	if tested == 0 {
		return 0
	}
	return float64(inside) / float64(tested)
}

// WithinCounty reports whether a zip polygon belongs to a county: true when
// the zip's centroid falls inside the county, or when at least 30% of the
// zip's area overlaps it. Multi-county zips are expected to match more
// than one county.
func WithinCounty(zipRings, countyRings []orb.Ring) bool {
	if c, ok := Centroid(zipRings); ok && PointInPolygon(c, countyRings) {
		return true
	}
	return AreaOverlapFraction(zipRings, countyRings) >= countyOverlapThreshold
}
