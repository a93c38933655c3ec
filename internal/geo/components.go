package geo

import (
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/affordmap/internal/types"
)

// mainlandRadius is the first-vertex distance from the union centroid,
// in coordinate degrees, below which a feature joins the main group.
const mainlandRadius = 0.1

// ConnectedComponents partitions features into one "main" group near the
// combined centroid of all inputs plus one singleton group per outlier.
// A city's mainland comes back as the first group and its islands and
// exclaves as singletons, so each part can be drawn as its own wash.
//
// This is proximity clustering against the union centroid, not true graph
// connectivity; it exists to split visually discontiguous parts, not to
// compute topology.
func ConnectedComponents(features []types.Feature) [][]types.Feature {
	if len(features) == 0 {
		return nil
	}

	var allRings []orb.Ring
	for _, f := range features {
		allRings = append(allRings, PathsFrom(f.Geometry)...)
	}
	center, ok := Centroid(allRings)
	if !ok {
		return nil
	}

	var main []types.Feature
	var islands [][]types.Feature
	for _, f := range features {
		rings := PathsFrom(f.Geometry)
		if len(rings) == 0 || len(rings[0]) == 0 {
			continue
		}
		if Distance(rings[0][0], center) < mainlandRadius {
			main = append(main, f)
		} else {
			islands = append(islands, []types.Feature{f})
		}
	}

	groups := make([][]types.Feature, 0, 1+len(islands))
	if len(main) > 0 {
		groups = append(groups, main)
	}
	groups = append(groups, islands...)
	return groups
}
