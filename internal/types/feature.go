package types

import (
	"time"

	"github.com/paulmach/orb"
)

// CollectionKind identifies one of the two independent boundary datasets.
type CollectionKind string

const (
	CollectionZips     CollectionKind = "zips"
	CollectionCounties CollectionKind = "counties"
)

// Feature is one geometry + property record from a boundary dataset
// (one zip code polygon or one county polygon).
type Feature struct {
	Geometry   orb.Geometry           // Polygon or MultiPolygon
	Properties map[string]interface{} // source properties, schema varies by upstream
}

// FeatureCollection is an ordered set of features loaded from one dataset.
// The zip-level and county-level collections are kept separate and are
// never merged into one structure.
type FeatureCollection struct {
	Kind      CollectionKind
	Features  []Feature
	FetchedAt time.Time
	Source    string // "network" or "cache"
}

// Count returns the number of features in the collection.
func (fc *FeatureCollection) Count() int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// Empty reports whether the collection holds no features.
func (fc *FeatureCollection) Empty() bool {
	return fc.Count() == 0
}
