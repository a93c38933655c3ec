package store

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/MeKo-Tech/affordmap/internal/types"
)

// decodeCollection validates raw bytes and decodes them into a feature
// collection. Returns nil for anything that is not a well-formed GeoJSON
// FeatureCollection: empty bodies, HTML error pages served with a 200,
// JSON that fails to parse, or JSON whose top level is not a feature
// collection.
func decodeCollection(data []byte, kind types.CollectionKind) *types.FeatureCollection {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if looksLikeHTML(trimmed) {
		return nil
	}

	// Cheap structural check before the full geometry decode: a type tag
	// and a features sequence must both be present.
	var shape struct {
		Type     string          `json:"type"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(trimmed, &shape); err != nil {
		return nil
	}
	if !strings.EqualFold(shape.Type, "FeatureCollection") || len(shape.Features) == 0 {
		return nil
	}

	fc, err := geojson.UnmarshalFeatureCollection(trimmed)
	if err != nil {
		return nil
	}

	out := &types.FeatureCollection{
		Kind:      kind,
		Features:  make([]types.Feature, 0, len(fc.Features)),
		FetchedAt: time.Now(),
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			// Boundary datasets are polygonal; stray points or lines are
			// dropped rather than failing the whole collection.
			continue
		}
		props := map[string]interface{}(f.Properties)
		if props == nil {
			props = map[string]interface{}{}
		}
		out.Features = append(out.Features, types.Feature{
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	if len(out.Features) == 0 {
		return nil
	}
	return out
}

// looksLikeHTML catches error pages served with a success status.
func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	lower := strings.ToLower(string(head))
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "<html")
}
