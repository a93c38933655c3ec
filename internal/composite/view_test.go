package composite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
	"github.com/MeKo-Tech/affordmap/internal/canvas/canvastest"
	"github.com/MeKo-Tech/affordmap/internal/interaction"
	"github.com/MeKo-Tech/affordmap/internal/kvcache"
	"github.com/MeKo-Tech/affordmap/internal/score"
	"github.com/MeKo-Tech/affordmap/internal/search"
	"github.com/MeKo-Tech/affordmap/internal/store"
)

// squareFeature is one test polygon: a square of side size at (x, y) with
// the given properties.
type squareFeature struct {
	props map[string]interface{}
	x, y  float64
	size  float64
}

func zipSquare(zip, city, county string, x, y, size float64) squareFeature {
	props := map[string]interface{}{"ZIP": zip}
	if city != "" {
		props["CITY"] = city
	}
	if county != "" {
		props["COUNTY"] = county
	}
	return squareFeature{props: props, x: x, y: y, size: size}
}

func countySquare(name string, x, y, size float64) squareFeature {
	return squareFeature{props: map[string]interface{}{"NAME": name}, x: x, y: y, size: size}
}

func featureJSON(t *testing.T, features []squareFeature) string {
	t.Helper()
	raw := make([]map[string]interface{}, 0, len(features))
	for _, f := range features {
		x, y, s := f.x, f.y, f.size
		raw = append(raw, map[string]interface{}{
			"type":       "Feature",
			"properties": f.props,
			"geometry": map[string]interface{}{
				"type": "Polygon",
				"coordinates": [][][]float64{{
					{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}, {x, y},
				}},
			},
		})
	}
	out, err := json.Marshal(map[string]interface{}{
		"type":     "FeatureCollection",
		"features": raw,
	})
	require.NoError(t, err)
	return string(out)
}

// testEnv wires a renderer over a fake canvas and a cache-seeded loader.
type testEnv struct {
	fake       *canvastest.Fake
	mapCtx     *interaction.MapInteractionContext
	controller *interaction.ShapeController
	index      *search.Index
	renderer   *Renderer
}

func newTestEnv(t *testing.T, zips, counties []squareFeature) *testEnv {
	t.Helper()
	cache := kvcache.NewMemory()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "features:zips", featureJSON(t, zips), time.Hour))
	if counties != nil {
		require.NoError(t, cache.Set(ctx, "features:counties", featureJSON(t, counties), time.Hour))
	}
	loader := store.NewLoader(store.Config{Cache: cache})

	fake := canvastest.New()
	mapCtx := interaction.NewContext(fake)
	controller := interaction.NewShapeController(mapCtx)
	index := search.NewIndex(loader, nil, nil)
	return &testEnv{
		fake:       fake,
		mapCtx:     mapCtx,
		controller: controller,
		index:      index,
		renderer:   NewRenderer(mapCtx, loader, index, controller, nil),
	}
}

// washes and outlines are distinguished by z-index: washes sit below every
// member outline.
func (e *testEnv) washes() []*canvastest.FakeShape {
	var out []*canvastest.FakeShape
	for _, s := range e.fake.Live() {
		if s.CurrentStyle().ZIndex == 0 {
			out = append(out, s)
		}
	}
	return out
}

func (e *testEnv) outlines() []*canvastest.FakeShape {
	var out []*canvastest.FakeShape
	for _, s := range e.fake.Live() {
		if s.CurrentStyle().ZIndex != 0 {
			out = append(out, s)
		}
	}
	return out
}

func TestRenderCountyMembership(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("32204", "JACKSONVILLE", "", 0.2, 0.2, 0.6),
		zipSquare("32207", "JACKSONVILLE", "", 1.2, 1.2, 0.6),
		zipSquare("99999", "ELSEWHERE", "", 5, 5, 0.6),
	}, []squareFeature{
		countySquare("Duval County", 0, 0, 2),
	})

	v := env.renderer.Render(context.Background(), "Duval")
	require.NotNil(t, v)
	require.Equal(t, search.KindCounty, v.Kind)
	require.Equal(t, []string{"32204", "32207"}, v.Sorted())
	require.True(t, env.mapCtx.CompositeActive())
	require.False(t, env.mapCtx.CompositeLoading(), "loading flag clears after render")

	// Fully enclosed members carry area weights near 1.
	weights := v.AreaWeights()
	require.Len(t, weights, 2)
	for zip, w := range weights {
		require.Greater(t, w, 0.9, "zip %s fully inside the county", zip)
	}

	// Two member outlines plus a single county wash, and the viewport
	// zoomed to the result.
	require.Len(t, env.outlines(), 2)
	require.Len(t, env.washes(), 1)
	require.NotEmpty(t, env.fake.Fitted)
}

func TestRenderCountyLearnsAttribution(t *testing.T) {
	// The member zip carries no county attribute; geometry decides
	// membership and the result is pushed back into the index.
	env := newTestEnv(t, []squareFeature{
		zipSquare("32097", "YULEE", "", 0.2, 0.2, 0.6),
	}, []squareFeature{
		countySquare("Nassau County", 0, 0, 2),
	})

	v := env.renderer.Render(context.Background(), "Nassau")
	require.NotNil(t, v)
	require.Equal(t, []string{"32097"}, v.ZipCodes())

	require.Equal(t, []string{"32097"},
		env.index.GetZipCodesForCounty(context.Background(), "Nassau"))

	rec, ok := env.index.Lookup(context.Background(), "32097")
	require.True(t, ok)
	require.Equal(t, "NASSAU", rec.County, "geometric membership feeds back into the index")
}

func TestRenderCity(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
		zipSquare("00003", "BETA", "", 5, 5, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)
	require.Equal(t, search.KindCity, v.Kind)
	require.Equal(t, []string{"00001", "00002"}, v.Sorted())

	// Cities aggregate unweighted.
	require.Empty(t, v.AreaWeights())

	// Two contiguous members form one component, so one wash.
	require.Len(t, env.outlines(), 2)
	require.Len(t, env.washes(), 1)
}

func TestRenderCityDrawsWashPerComponent(t *testing.T) {
	features := make([]squareFeature, 0, 11)
	for i := 0; i < 10; i++ {
		features = append(features, zipSquare(itoa5(32200+i), "ARCHIPELAGO", "", 0.01*float64(i), 0, 0.01))
	}
	features = append(features, zipSquare("32299", "ARCHIPELAGO", "", 0.3, 0.3, 0.01))
	env := newTestEnv(t, features, nil)

	v := env.renderer.Render(context.Background(), "Archipelago")
	require.NotNil(t, v)
	require.Len(t, v.ZipCodes(), 11)

	// Mainland wash plus one for the island.
	require.Len(t, env.washes(), 2)
}

func itoa5(n int) string {
	s := []byte("00000")
	for i := 4; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

func TestRenderUnknownName(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
	}, nil)

	require.Nil(t, env.renderer.Render(context.Background(), "Atlantis"))
	require.Nil(t, env.renderer.Render(context.Background(), "   "))
	require.False(t, env.mapCtx.CompositeActive())
}

func TestUpdateColors(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)

	// One scored member, one missing; the missing one paints unavailable.
	v.UpdateColors(map[string]float64{"00001": 900})

	fills := make(map[string]int)
	for _, s := range env.outlines() {
		fills[s.CurrentStyle().FillColor]++
	}
	require.Equal(t, 1, fills[score.ColorFor(900).Hex])
	require.Equal(t, 1, fills[score.BucketUnavailable.Hex])
}

func TestAggregate(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)

	got, ok := v.Aggregate(map[string]float64{"00001": 600, "00002": 800})
	require.True(t, ok)
	require.InDelta(t, 700, got, 0.5)

	// A sentinel member drops out of the mean.
	got, ok = v.Aggregate(map[string]float64{"00001": 600, "00002": score.Unavailable})
	require.True(t, ok)
	require.InDelta(t, 600, got, 0.5)

	_, ok = v.Aggregate(map[string]float64{})
	require.False(t, ok)
}

func TestTeardown(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)
	require.NotEmpty(t, env.fake.Live())

	v.Teardown()
	require.Empty(t, env.fake.Live())
	require.Empty(t, v.ZipCodes())
	require.False(t, env.mapCtx.CompositeActive())

	// Second call is a no-op.
	v.Teardown()
	require.Empty(t, env.fake.Live())
}

func TestTeardownPreserves(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)

	v.Teardown("00001")
	live := env.fake.Live()
	require.Len(t, live, 1, "only the preserved member survives")
	require.NotEqual(t, 0, live[0].CurrentStyle().ZIndex, "survivor is an outline, not a wash")
}

func TestClickingMemberMigratesToDirectSelection(t *testing.T) {
	env := newTestEnv(t, []squareFeature{
		zipSquare("00001", "ALPHA", "", 0, 0, 0.05),
		zipSquare("00002", "ALPHA", "", 0.05, 0, 0.05),
	}, nil)

	v := env.renderer.Render(context.Background(), "Alpha")
	require.NotNil(t, v)

	// Find the outline for 00002 by its geometry.
	var target *canvastest.FakeShape
	for _, s := range env.outlines() {
		if s.Rings[0][0][0] == 0.05 {
			target = s
		}
	}
	require.NotNil(t, target)

	target.Fire(canvas.EventClick)

	require.Equal(t, interaction.StateSelected, env.controller.StateOf("00002"))
	require.Equal(t, "00002", env.mapCtx.SelectedZip())
	require.False(t, env.mapCtx.CompositeActive())
	require.False(t, target.Removed(), "the clicked polygon migrates instead of being redrawn")

	// Everything else from the composite is gone.
	require.Len(t, env.fake.Live(), 1)
}
