package search

import (
	"regexp"
	"strings"
)

var (
	rePunct    = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	reZip      = regexp.MustCompile(`^\d{5}$`)
	reHouseNum = regexp.MustCompile(`^\d+\s+\S`)
)

// Street-type tokens that mark a query as address-like, USPS style.
var streetTokens = map[string]struct{}{
	"ST": {}, "STREET": {}, "RD": {}, "ROAD": {}, "AVE": {}, "AVENUE": {},
	"BLVD": {}, "BOULEVARD": {}, "DR": {}, "DRIVE": {}, "LN": {}, "LANE": {},
	"CT": {}, "COURT": {}, "CIR": {}, "CIRCLE": {}, "TER": {}, "TERRACE": {},
	"PL": {}, "PLACE": {}, "PKWY": {}, "PARKWAY": {}, "HWY": {}, "HIGHWAY": {},
	"WAY": {}, "TRL": {}, "TRAIL": {},
}

// NormalizeName canonicalizes a city or county name for use as an index
// key: uppercase, punctuation stripped, whitespace collapsed, and a
// trailing COUNTY token dropped so "Duval County" and "DUVAL" collide.
func NormalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = rePunct.ReplaceAllString(n, " ")
	n = strings.Join(strings.Fields(n), " ")
	n = strings.TrimSuffix(n, " COUNTY")
	return n
}

// IsZip reports whether s is exactly five digits.
func IsZip(s string) bool {
	return reZip.MatchString(strings.TrimSpace(s))
}

func leadingDigits(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// looksLikeAddress flags queries that should fall through to the external
// address source: a leading house number, or a street-type keyword.
func looksLikeAddress(query string) bool {
	q := strings.TrimSpace(query)
	if reHouseNum.MatchString(q) {
		return true
	}
	for _, tok := range strings.Fields(strings.ToUpper(rePunct.ReplaceAllString(q, " "))) {
		if _, ok := streetTokens[tok]; ok {
			return true
		}
	}
	return false
}
