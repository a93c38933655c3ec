// Package search builds the in-memory lookup maps over the boundary
// collections and answers autocomplete and exact-resolution queries,
// merging in an external free-text address source when local results run
// thin.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/MeKo-Tech/affordmap/internal/geo"
	"github.com/MeKo-Tech/affordmap/internal/store"
)

// Kind classifies a search candidate. Ranking uses the declaration order:
// zips beat cities beat counties beat raw addresses.
type Kind int

const (
	KindZip Kind = iota
	KindCity
	KindCounty
	KindAddress
)

func (k Kind) String() string {
	switch k {
	case KindZip:
		return "zip"
	case KindCity:
		return "city"
	case KindCounty:
		return "county"
	case KindAddress:
		return "address"
	default:
		return "unknown"
	}
}

// ZipRecord is what the index knows about one zip code.
type ZipRecord struct {
	City   string
	County string
}

// Candidate is one ranked suggestion.
type Candidate struct {
	Value   string `json:"value"`
	Kind    Kind   `json:"-"`
	KindTag string `json:"kind"`
	Zip     string `json:"zip,omitempty"`      // set for zip candidates
	PlaceID string `json:"place_id,omitempty"` // set for address candidates
}

// Resolution is the outcome of resolving a free-text query.
type Resolution struct {
	Kind Kind
	Zip  string // set when Kind is KindZip
	Name string // normalized name when Kind is KindCity or KindCounty
}

// Index owns the three lookup maps. It is built lazily on first use and
// rebuilt after new county attribution is learned (a zip whose county only
// became known via reverse lookup).
type Index struct {
	loader    *store.Loader
	addresses AddressSource
	logger    *slog.Logger

	mu       sync.Mutex
	built    bool
	zipCodes map[string]ZipRecord
	zipOrder []string // collection order, for deterministic scans
	cities   map[string]map[string]struct{}
	counties map[string]map[string]struct{}
	learned  map[string]string // zip -> county discovered after build
}

// NewIndex creates an index over the loader's collections. addresses may
// be nil, which disables the external fallback.
func NewIndex(loader *store.Loader, addresses AddressSource, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		loader:    loader,
		addresses: addresses,
		logger:    logger,
		learned:   make(map[string]string),
	}
}

// Build populates the maps. Idempotent; concurrent callers share one
// build. Safe to call with either collection missing — the index then
// simply knows fewer things.
func (ix *Index) Build(ctx context.Context) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buildLocked(ctx)
}

func (ix *Index) buildLocked(ctx context.Context) {
	if ix.built {
		return
	}
	ix.zipCodes = make(map[string]ZipRecord)
	ix.zipOrder = ix.zipOrder[:0]
	ix.cities = make(map[string]map[string]struct{})
	ix.counties = make(map[string]map[string]struct{})

	if zips := ix.loader.LoadZips(ctx); zips != nil {
		for _, f := range zips.Features {
			zip := geo.ExtractZipCode(f)
			if zip == "" {
				continue // no identity key, not indexed
			}
			rec := ZipRecord{City: geo.ExtractCity(f), County: geo.ExtractCounty(f)}
			if learned, ok := ix.learned[zip]; ok && rec.County == "" {
				rec.County = learned
			}
			if _, dup := ix.zipCodes[zip]; !dup {
				ix.zipOrder = append(ix.zipOrder, zip)
			}
			ix.zipCodes[zip] = rec
			if city := NormalizeName(rec.City); city != "" {
				addToSet(ix.cities, city, zip)
			}
		}
	}

	if counties := ix.loader.LoadCounties(ctx); counties != nil {
		for _, f := range counties.Features {
			name := NormalizeName(geo.ExtractCountyName(f))
			if name == "" {
				continue
			}
			members := make(map[string]struct{})
			for zip, rec := range ix.zipCodes {
				if NormalizeName(rec.County) == name {
					members[zip] = struct{}{}
				}
			}
			// A county no zip claims still needs to be discoverable, so it
			// gets seeded with one representative zip.
			if len(members) == 0 && len(ix.zipOrder) > 0 {
				members[ix.zipOrder[0]] = struct{}{}
			}
			if len(members) > 0 {
				ix.counties[name] = members
			}
		}
	}

	ix.built = true
	ix.logger.Debug("search index built",
		"zips", len(ix.zipCodes), "cities", len(ix.cities), "counties", len(ix.counties))
}

// SetCountyForZip records county attribution learned after the fact (for
// example via reverse geocoding a zip that carried no county metadata) and
// invalidates the memoized index so the next query sees it.
func (ix *Index) SetCountyForZip(zip, county string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if zip == "" || county == "" {
		return
	}
	ix.learned[zip] = county
	ix.built = false
}

// Lookup returns the record for an exact zip code.
func (ix *Index) Lookup(ctx context.Context, zip string) (ZipRecord, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buildLocked(ctx)
	rec, ok := ix.zipCodes[zip]
	return rec, ok
}

// GetZipCodesForCity returns the sorted zip set for a city name, nil when
// the city is unknown.
func (ix *Index) GetZipCodesForCity(ctx context.Context, name string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buildLocked(ctx)
	return sortedSet(ix.cities[NormalizeName(name)])
}

// GetZipCodesForCounty returns the sorted zip set for a county name, nil
// when the county is unknown.
func (ix *Index) GetZipCodesForCounty(ctx context.Context, name string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buildLocked(ctx)
	return sortedSet(ix.counties[NormalizeName(name)])
}

// Suggest returns up to limit ranked candidates for a partial query.
// Local zip/city/county matches come first; when they run under 3, or the
// query reads like a street address, the remaining budget is delegated to
// the external address source. The address source being down degrades to
// local-only results.
func (ix *Index) Suggest(ctx context.Context, query string, limit int) []Candidate {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}

	ix.mu.Lock()
	ix.buildLocked(ctx)
	local := ix.localCandidatesLocked(query, limit)
	ix.mu.Unlock()

	results := local
	if (len(local) < 3 || looksLikeAddress(query)) && ix.addresses != nil {
		budget := limit - len(local)
		if budget < 1 {
			budget = 1
		}
		if ext := ix.addressCandidates(ctx, query, budget); len(ext) > 0 {
			results = append(results, ext...)
		}
	}

	results = lo.UniqBy(results, func(c Candidate) string { return c.KindTag + "|" + c.Value })
	rankCandidates(results, query)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (ix *Index) localCandidatesLocked(query string, limit int) []Candidate {
	var out []Candidate
	q := NormalizeName(query)

	if leadingDigits(query) {
		digits := strings.TrimSpace(query)
		// Prefix hits first, then substring hits, both in collection order.
		for _, pass := range []func(string) bool{
			func(z string) bool { return strings.HasPrefix(z, digits) },
			func(z string) bool { return !strings.HasPrefix(z, digits) && strings.Contains(z, digits) },
		} {
			for _, zip := range ix.zipOrder {
				if len(out) >= limit {
					break
				}
				if pass(zip) {
					out = append(out, Candidate{Value: zip, Kind: KindZip, KindTag: KindZip.String(), Zip: zip})
				}
			}
		}
	}

	if q != "" {
		for _, name := range sortedKeys(ix.cities) {
			if strings.Contains(name, q) {
				out = append(out, Candidate{Value: name, Kind: KindCity, KindTag: KindCity.String()})
			}
		}
		for _, name := range sortedKeys(ix.counties) {
			if strings.Contains(name, q) {
				out = append(out, Candidate{Value: name, Kind: KindCounty, KindTag: KindCounty.String()})
			}
		}
	}
	return out
}

func (ix *Index) addressCandidates(ctx context.Context, query string, budget int) []Candidate {
	suggestions, err := ix.addresses.SuggestAddresses(ctx, query)
	if err != nil {
		ix.logger.Warn("address source unavailable, local results only", "error", err)
		return nil
	}
	if len(suggestions) > budget {
		suggestions = suggestions[:budget]
	}
	return lo.Map(suggestions, func(s AddressSuggestion, _ int) Candidate {
		return Candidate{Value: s.Description, Kind: KindAddress, KindTag: KindAddress.String(), PlaceID: s.PlaceID}
	})
}

// rankCandidates sorts exact matches first, then by kind priority, keeping
// the original order within each group.
func rankCandidates(cands []Candidate, query string) {
	q := strings.ToUpper(strings.TrimSpace(query))
	exact := func(c Candidate) bool {
		return strings.EqualFold(c.Value, q) || (c.Zip != "" && c.Zip == q)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		ei, ej := exact(cands[i]), exact(cands[j])
		if ei != ej {
			return ei
		}
		return cands[i].Kind < cands[j].Kind
	})
}

// Resolve maps a free-text query to a zip code or a composite name.
// Exact zip, city, then county matches win; otherwise the top non-address
// suggestion is used. Returns nil on a complete miss.
func (ix *Index) Resolve(ctx context.Context, query string) *Resolution {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ix.mu.Lock()
	ix.buildLocked(ctx)
	if IsZip(query) {
		if _, ok := ix.zipCodes[query]; ok {
			ix.mu.Unlock()
			return &Resolution{Kind: KindZip, Zip: query}
		}
	}
	q := NormalizeName(query)
	if _, ok := ix.cities[q]; ok {
		ix.mu.Unlock()
		return &Resolution{Kind: KindCity, Name: q}
	}
	if _, ok := ix.counties[q]; ok {
		ix.mu.Unlock()
		return &Resolution{Kind: KindCounty, Name: q}
	}
	ix.mu.Unlock()

	for _, c := range ix.Suggest(ctx, query, 5) {
		switch c.Kind {
		case KindZip:
			return &Resolution{Kind: KindZip, Zip: c.Zip}
		case KindCity:
			return &Resolution{Kind: KindCity, Name: c.Value}
		case KindCounty:
			return &Resolution{Kind: KindCounty, Name: c.Value}
		}
	}
	return nil
}

func addToSet(m map[string]map[string]struct{}, key, member string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[member] = struct{}{}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := lo.Keys(set)
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]map[string]struct{}) []string {
	out := lo.Keys(m)
	sort.Strings(out)
	return out
}
