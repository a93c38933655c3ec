// Package geo holds the pure geometry and property-extraction primitives
// the boundary engine is built on: alias-table property lookup, geometry to
// ring-path conversion, point-in-polygon, centroid, approximate area
// overlap, county membership, and proximity clustering.
package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/affordmap/internal/types"
)

// Upstream boundary datasets disagree on property names (TIGER vintages,
// county exports, hand-rolled GeoJSON). Each extractor walks an ordered
// alias list and takes the first present, non-empty value.
var (
	zipAliases        = []string{"ZCTA5CE20", "ZCTA5CE10", "ZCTA5CE", "ZIPCODE", "ZIP", "zip", "GEOID20", "GEOID10"}
	cityAliases       = []string{"CITY", "City", "city", "PO_NAME", "NAME_CITY", "PLACENAME"}
	countyAliases     = []string{"COUNTY", "County", "county", "COUNTYNAME", "NAMELSAD", "CNTY_NAME"}
	countyNameAliases = []string{"NAME", "NAMELSAD", "COUNTY", "CountyName", "BASENAME"}
	populationAliases = []string{"POPULATION", "POP2020", "POP2010", "POP", "population", "DP0010001"}
)

var fiveDigitRun = regexp.MustCompile(`\b\d{5}\b`)

// firstPresent returns the first alias key that maps to a non-empty value.
func firstPresent(props map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// ExtractZipCode returns the feature's 5-digit zip code, or "" when none of
// the known aliases carry one. As a last resort it scans a generic NAME
// field for an embedded 5-digit run, since some exports only label features
// as e.g. "ZCTA5 32207". A feature with no extractable zip is dropped by
// callers: the zip code is the feature's identity key for a load session.
func ExtractZipCode(f types.Feature) string {
	if v, ok := firstPresent(f.Properties, zipAliases); ok {
		s := asString(v)
		// GEOID-style values may prefix the zip; keep the trailing 5 digits.
		if len(s) > 5 {
			s = s[len(s)-5:]
		}
		if len(s) == 5 && isDigits(s) {
			return s
		}
	}
	for _, key := range []string{"NAME", "NAME20", "NAME10", "name"} {
		if v, ok := f.Properties[key]; ok {
			if m := fiveDigitRun.FindString(asString(v)); m != "" {
				return m
			}
		}
	}
	return ""
}

// ExtractCity returns the feature's city name, or "".
func ExtractCity(f types.Feature) string {
	if v, ok := firstPresent(f.Properties, cityAliases); ok {
		return asString(v)
	}
	return ""
}

// ExtractCounty returns the county attribute of a zip-level feature, or "".
func ExtractCounty(f types.Feature) string {
	if v, ok := firstPresent(f.Properties, countyAliases); ok {
		return asString(v)
	}
	return ""
}

// ExtractCountyName returns the display name of a county-level feature.
// County polygons usually carry their name in NAME/NAMELSAD rather than a
// COUNTY attribute.
func ExtractCountyName(f types.Feature) string {
	if v, ok := firstPresent(f.Properties, countyNameAliases); ok {
		return asString(v)
	}
	return ""
}

// ExtractPopulation returns the feature's population, or 0 when absent or
// unparseable.
func ExtractPopulation(f types.Feature) int {
	v, ok := firstPresent(f.Properties, populationAliases)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
