package geo

import "github.com/paulmach/orb"

// PathsFrom flattens a geometry into its coordinate rings. A Polygon yields
// its rings in order; a MultiPolygon yields the concatenation of every ring
// of every sub-polygon. Inner rings (holes) are not distinguished from
// outer boundaries here; consumers that care (PointInPolygon) treat rings
// after the first as holes. Anything degenerate yields an empty slice.
func PathsFrom(g orb.Geometry) []orb.Ring {
	switch t := g.(type) {
	case orb.Polygon:
		out := make([]orb.Ring, 0, len(t))
		for _, ring := range t {
			if len(ring) > 0 {
				out = append(out, ring)
			}
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, poly := range t {
			for _, ring := range poly {
				if len(ring) > 0 {
					out = append(out, ring)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// BoundOf computes the bounding box of a set of rings. The second return
// is false when there are no vertices.
func BoundOf(rings []orb.Ring) (orb.Bound, bool) {
	found := false
	var b orb.Bound
	for _, ring := range rings {
		for _, pt := range ring {
			if !found {
				b = orb.Bound{Min: pt, Max: pt}
				found = true
				continue
			}
			b = b.Extend(pt)
		}
	}
	return b, found
}
