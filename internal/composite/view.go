// Package composite renders the aggregated city/county view: a background
// wash over the composite boundary plus one outline per member zip, with
// area-weighted score aggregation across the members.
package composite

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
	"github.com/MeKo-Tech/affordmap/internal/geo"
	"github.com/MeKo-Tech/affordmap/internal/interaction"
	"github.com/MeKo-Tech/affordmap/internal/score"
	"github.com/MeKo-Tech/affordmap/internal/search"
	"github.com/MeKo-Tech/affordmap/internal/store"
	"github.com/MeKo-Tech/affordmap/internal/types"
)

var (
	washStyle = canvas.Style{
		StrokeColor: "#7986cb", StrokeOpacity: 0.6, StrokeWeight: 1.5,
		FillColor: "#9fa8da", FillOpacity: 0.18, ZIndex: 0,
	}
	outlineStyle = canvas.Style{
		StrokeColor: "#5c6bc0", StrokeOpacity: 0.9, StrokeWeight: 1,
		FillColor: "#c5cae9", FillOpacity: 0.35, ZIndex: 1,
	}
)

// Renderer resolves a city or county name to its member zips and draws the
// composite view.
type Renderer struct {
	mapCtx     *interaction.MapInteractionContext
	loader     *store.Loader
	index      *search.Index
	controller *interaction.ShapeController
	logger     *slog.Logger

	// DefaultFill colors member outlines until scores arrive.
	DefaultFill string
}

// NewRenderer wires a composite renderer to the shared map context.
func NewRenderer(mapCtx *interaction.MapInteractionContext, loader *store.Loader, index *search.Index, controller *interaction.ShapeController, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		mapCtx:      mapCtx,
		loader:      loader,
		index:       index,
		controller:  controller,
		logger:      logger,
		DefaultFill: outlineStyle.FillColor,
	}
}

// View is one live composite rendering. It exists only while its name is
// the active search target and is fully torn down on any mode change.
type View struct {
	Name string
	Kind search.Kind

	renderer *Renderer

	mu      sync.Mutex
	zips    []string
	weights map[string]float64
	shapes  map[string]canvas.Shape
	washes  []canvas.Shape
	down    bool
}

// Render resolves name as a county first, then as a city, draws the view,
// and returns it. Returns nil when the name matches nothing.
func (r *Renderer) Render(ctx context.Context, name string) *View {
	norm := search.NormalizeName(name)
	if norm == "" {
		return nil
	}

	r.mapCtx.SetCompositeLoading(true)
	defer r.mapCtx.SetCompositeLoading(false)

	if v := r.renderCounty(ctx, norm); v != nil {
		r.mapCtx.SetCompositeActive(true)
		return v
	}
	if v := r.renderCity(ctx, norm); v != nil {
		r.mapCtx.SetCompositeActive(true)
		return v
	}
	r.logger.Debug("composite target not found", "name", name)
	return nil
}

// renderCounty matches name against the county collection by normalized
// equality then substring. Membership is geometric (WithinCounty) with a
// name-attribute fallback for zip features carrying no usable geometry.
func (r *Renderer) renderCounty(ctx context.Context, norm string) *View {
	counties := r.loader.LoadCounties(ctx)
	if counties == nil {
		return nil
	}

	county, ok := matchCounty(counties, norm)
	if !ok {
		return nil
	}
	countyRings := geo.PathsFrom(county.Geometry)

	zips := r.loader.LoadZips(ctx)
	if zips == nil {
		return nil
	}

	v := r.newView(norm, search.KindCounty)
	var allRings []orb.Ring
	for _, f := range zips.Features {
		zip := geo.ExtractZipCode(f)
		if zip == "" {
			continue
		}
		rings := geo.PathsFrom(f.Geometry)
		if len(rings) == 0 {
			// No geometry to test; fall back to the feature's own county
			// attribute.
			if search.NormalizeName(geo.ExtractCounty(f)) == norm {
				v.addMember(zip, nil, -1)
			}
			continue
		}
		if !geo.WithinCounty(rings, countyRings) {
			continue
		}
		weight := geo.AreaOverlapFraction(rings, countyRings)
		v.addMember(zip, rings, weight)
		allRings = append(allRings, rings...)

		// Geometry just told us this zip belongs here; push that back into
		// the index for zips that carried no county metadata.
		if rec, known := r.index.Lookup(ctx, zip); known && rec.County == "" {
			r.index.SetCountyForZip(zip, norm)
		}
	}
	if len(v.zips) == 0 {
		return nil
	}

	// Counties have a single enclosing boundary, so one wash suffices.
	v.addWash(countyRings)
	r.fit(append(allRings, countyRings...))
	return v
}

// renderCity resolves the zip set through the index, falling back to a
// substring scan over the zip features' own city/county attributes.
func (r *Renderer) renderCity(ctx context.Context, norm string) *View {
	zips := r.loader.LoadZips(ctx)
	if zips == nil {
		return nil
	}

	memberSet := make(map[string]struct{})
	for _, zip := range r.index.GetZipCodesForCity(ctx, norm) {
		memberSet[zip] = struct{}{}
	}
	if len(memberSet) == 0 {
		for _, f := range zips.Features {
			zip := geo.ExtractZipCode(f)
			if zip == "" {
				continue
			}
			city := search.NormalizeName(geo.ExtractCity(f))
			county := search.NormalizeName(geo.ExtractCounty(f))
			if strings.Contains(city, norm) || strings.Contains(county, norm) {
				memberSet[zip] = struct{}{}
			}
		}
	}
	if len(memberSet) == 0 {
		return nil
	}

	v := r.newView(norm, search.KindCity)
	var memberFeatures []types.Feature
	var allRings []orb.Ring
	for _, f := range zips.Features {
		zip := geo.ExtractZipCode(f)
		if zip == "" {
			continue
		}
		if _, ok := memberSet[zip]; !ok {
			continue
		}
		rings := geo.PathsFrom(f.Geometry)
		// Cities have no single enclosing polygon, so no area weight; the
		// aggregate falls back to weight 1.0 per member.
		v.addMember(zip, rings, -1)
		memberFeatures = append(memberFeatures, f)
		allRings = append(allRings, rings...)
	}
	if len(v.zips) == 0 {
		return nil
	}

	// One wash per connected component, so islands and exclaves read as
	// separate parts rather than one smeared blob.
	for _, group := range geo.ConnectedComponents(memberFeatures) {
		var groupRings []orb.Ring
		for _, f := range group {
			groupRings = append(groupRings, geo.PathsFrom(f.Geometry)...)
		}
		v.addWash(groupRings)
	}
	r.fit(allRings)
	return v
}

func (r *Renderer) newView(name string, kind search.Kind) *View {
	return &View{
		Name:     name,
		Kind:     kind,
		renderer: r,
		weights:  make(map[string]float64),
		shapes:   make(map[string]canvas.Shape),
	}
}

func (r *Renderer) fit(rings []orb.Ring) {
	if bound, ok := geo.BoundOf(rings); ok {
		r.mapCtx.Canvas().FitBounds(bound)
	}
}

// matchCounty finds the county feature for a normalized name, equality
// before substring.
func matchCounty(counties *types.FeatureCollection, norm string) (types.Feature, bool) {
	for _, f := range counties.Features {
		if search.NormalizeName(geo.ExtractCountyName(f)) == norm {
			return f, true
		}
	}
	for _, f := range counties.Features {
		if strings.Contains(search.NormalizeName(geo.ExtractCountyName(f)), norm) {
			return f, true
		}
	}
	return types.Feature{}, false
}

// addMember registers a zip in the view, drawing its outline when it has
// geometry. weight < 0 means "no computed area weight" and the member
// averages at 1.0.
func (v *View) addMember(zip string, rings []orb.Ring, weight float64) {
	v.mu.Lock()
	if _, dup := v.shapes[zip]; dup {
		v.mu.Unlock()
		return
	}
	for _, existing := range v.zips {
		if existing == zip {
			v.mu.Unlock()
			return
		}
	}
	v.zips = append(v.zips, zip)
	if weight >= 0 {
		v.weights[zip] = weight
	}
	v.mu.Unlock()

	if len(rings) == 0 {
		return
	}
	style := outlineStyle
	style.FillColor = v.renderer.DefaultFill
	shape := v.renderer.mapCtx.Canvas().AddPolygon(rings, style)
	shape.On(canvas.EventClick, func() { v.selectZip(zip) })

	v.mu.Lock()
	v.shapes[zip] = shape
	v.mu.Unlock()
}

func (v *View) addWash(rings []orb.Ring) {
	if len(rings) == 0 {
		return
	}
	shape := v.renderer.mapCtx.Canvas().AddPolygon(rings, washStyle)
	v.mu.Lock()
	v.washes = append(v.washes, shape)
	v.mu.Unlock()
}

// ZipCodes returns the member zips in insertion order.
func (v *View) ZipCodes() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.zips...)
}

// AreaWeights returns a copy of the computed area-weight map. Members
// absent from it average with weight 1.0.
func (v *View) AreaWeights() map[string]float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]float64, len(v.weights))
	for zip, w := range v.weights {
		out[zip] = w
	}
	return out
}

// UpdateColors recolors every member outline from the score bucket rule
// without re-querying geometry. Members missing from scoreMap paint as
// unavailable.
func (v *View) UpdateColors(scoreMap map[string]float64) {
	v.mu.Lock()
	shapes := make(map[string]canvas.Shape, len(v.shapes))
	for zip, s := range v.shapes {
		shapes[zip] = s
	}
	v.mu.Unlock()

	for zip, shape := range shapes {
		s, ok := scoreMap[zip]
		if !ok {
			s = score.Unavailable
		}
		style := outlineStyle
		style.FillColor = score.ColorFor(s).Hex
		style.FillOpacity = 0.55
		shape.SetStyle(style)
	}
}

// Aggregate computes the composite's weighted score, Σ(score·w)/Σ(w) with
// weight 1.0 for members lacking an area weight. ok is false when no
// member produced a usable score.
func (v *View) Aggregate(scoreMap map[string]float64) (float64, bool) {
	return score.WeightedMean(scoreMap, v.AreaWeights())
}

// selectZip migrates a member polygon out of the composite into the
// controller's registry, tears the composite down around it, and selects
// it directly.
func (v *View) selectZip(zip string) {
	v.mu.Lock()
	shape, ok := v.shapes[zip]
	if ok {
		delete(v.shapes, zip)
	}
	v.mu.Unlock()

	if ok {
		v.renderer.controller.Adopt(zip, shape)
	}
	v.Teardown(zip)
	v.renderer.mapCtx.SetCompositeActive(false)
	v.renderer.controller.Select(zip)
}

// Teardown removes every wash and member shape and clears the composite
// maps. Shapes for the preserve zips survive (used when a member migrates
// into direct selection). Idempotent.
func (v *View) Teardown(preserve ...string) {
	keep := make(map[string]struct{}, len(preserve))
	for _, zip := range preserve {
		keep[zip] = struct{}{}
	}

	v.mu.Lock()
	if v.down {
		v.mu.Unlock()
		return
	}
	v.down = true
	washes := v.washes
	v.washes = nil
	shapes := v.shapes
	v.shapes = make(map[string]canvas.Shape)
	v.zips = nil
	v.weights = make(map[string]float64)
	v.mu.Unlock()

	for _, w := range washes {
		w.Remove()
	}
	for zip, shape := range shapes {
		if _, ok := keep[zip]; ok {
			continue
		}
		shape.Remove()
	}
	v.renderer.mapCtx.SetCompositeActive(false)
}

// Sorted returns the member zips sorted, for stable API responses.
func (v *View) Sorted() []string {
	out := v.ZipCodes()
	sort.Strings(out)
	return out
}
