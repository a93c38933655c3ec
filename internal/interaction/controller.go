package interaction

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
)

// State is the visual lifecycle of one zip polygon.
type State int

const (
	StateDormant State = iota
	StateHovered
	StateSelected
)

// Default shape styles. Fill colors change per score bucket; these govern
// weight and opacity per state.
var (
	dormantStyle = canvas.Style{
		StrokeColor: "#5c6bc0", StrokeOpacity: 0.8, StrokeWeight: 1,
		FillColor: "#c5cae9", FillOpacity: 0.25, ZIndex: 1,
	}
	hoverStyle = canvas.Style{
		StrokeColor: "#303f9f", StrokeOpacity: 1, StrokeWeight: 2,
		FillColor: "#c5cae9", FillOpacity: 0.45, ZIndex: 2,
	}
	selectedStyle = canvas.Style{
		StrokeColor: "#1a237e", StrokeOpacity: 1, StrokeWeight: 3,
		FillColor: "#c5cae9", FillOpacity: 0.6, ZIndex: 3,
	}
)

// ShapeController owns one polygon per zip code. Polygons are created
// lazily on first reference and memoized for the session. At most one zip
// is selected at a time outside composite mode.
type ShapeController struct {
	ctx *MapInteractionContext

	// OnSelect, when set, runs after a zip transitions to selected. This
	// is where the embedding application kicks off the score fetch.
	OnSelect func(zip string)

	mu     sync.Mutex
	shapes map[string]canvas.Shape
	states map[string]State
	fills  map[string]string // last painted fill per zip, restored after hover
}

// NewShapeController creates a controller over the given context.
func NewShapeController(ctx *MapInteractionContext) *ShapeController {
	return &ShapeController{
		ctx:    ctx,
		shapes: make(map[string]canvas.Shape),
		states: make(map[string]State),
		fills:  make(map[string]string),
	}
}

// EnsurePolygon returns the memoized shape for zip, drawing it on first
// reference. The same zip never gets a second shape within a session.
func (sc *ShapeController) EnsurePolygon(zip string, rings []orb.Ring) canvas.Shape {
	sc.mu.Lock()
	if shape, ok := sc.shapes[zip]; ok {
		sc.mu.Unlock()
		return shape
	}
	sc.mu.Unlock()

	shape := sc.ctx.Canvas().AddPolygon(rings, dormantStyle)
	return sc.adopt(zip, shape)
}

// Adopt takes ownership of an existing shape (one migrating out of a
// composite view) and wires the zip's event handlers onto it. If the zip
// already has a shape the existing one wins and the offered shape is
// removed.
func (sc *ShapeController) Adopt(zip string, shape canvas.Shape) canvas.Shape {
	sc.mu.Lock()
	if existing, ok := sc.shapes[zip]; ok {
		sc.mu.Unlock()
		shape.Remove()
		return existing
	}
	sc.mu.Unlock()
	return sc.adopt(zip, shape)
}

func (sc *ShapeController) adopt(zip string, shape canvas.Shape) canvas.Shape {
	sc.mu.Lock()
	if existing, ok := sc.shapes[zip]; ok {
		// Lost a race; keep the first registration.
		sc.mu.Unlock()
		shape.Remove()
		return existing
	}
	sc.shapes[zip] = shape
	sc.states[zip] = StateDormant
	sc.fills[zip] = dormantStyle.FillColor
	sc.mu.Unlock()

	shape.On(canvas.EventMouseOver, func() { sc.handleHoverIn(zip) })
	shape.On(canvas.EventMouseOut, func() { sc.handleHoverOut(zip) })
	shape.On(canvas.EventClick, func() { sc.Select(zip) })
	return shape
}

// Has reports whether a shape exists for zip.
func (sc *ShapeController) Has(zip string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, ok := sc.shapes[zip]
	return ok
}

// StateOf returns the current lifecycle state for zip.
func (sc *ShapeController) StateOf(zip string) State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.states[zip]
}

func (sc *ShapeController) handleHoverIn(zip string) {
	sc.mu.Lock()
	shape, ok := sc.shapes[zip]
	if !ok || sc.states[zip] == StateSelected {
		// A selected shape is visually locked; its own hover is ignored.
		sc.mu.Unlock()
		return
	}
	sc.states[zip] = StateHovered
	fill := sc.fills[zip]
	sc.mu.Unlock()

	style := hoverStyle
	style.FillColor = fill
	shape.SetStyle(style)
}

func (sc *ShapeController) handleHoverOut(zip string) {
	sc.mu.Lock()
	shape, ok := sc.shapes[zip]
	if !ok || sc.states[zip] != StateHovered {
		sc.mu.Unlock()
		return
	}
	sc.states[zip] = StateDormant
	fill := sc.fills[zip]
	sc.mu.Unlock()

	style := dormantStyle
	style.FillColor = fill
	shape.SetStyle(style)
}

// Select transitions zip to selected, first returning any other selected
// zip to dormant. The selection-in-progress flag goes up synchronously,
// before any caller-side score fetch begins.
func (sc *ShapeController) Select(zip string) {
	sc.ctx.BeginSelection(zip)

	// An unknown zip must leave the current selection untouched, so the
	// shape check comes before any demotion.
	sc.mu.Lock()
	shape, ok := sc.shapes[zip]
	sc.mu.Unlock()
	if !ok {
		sc.ctx.EndSelection(zip)
		return
	}

	if prev := sc.ctx.SelectedZip(); prev != "" && prev != zip {
		sc.demote(prev)
	}

	sc.mu.Lock()
	sc.states[zip] = StateSelected
	fill := sc.fills[zip]
	sc.mu.Unlock()

	sc.ctx.setSelected(zip)

	style := selectedStyle
	style.FillColor = fill
	shape.SetStyle(style)

	if sc.OnSelect != nil {
		sc.OnSelect(zip)
	}
}

// demote returns a zip to dormant and repaints its remembered fill.
func (sc *ShapeController) demote(zip string) {
	sc.mu.Lock()
	shape, ok := sc.shapes[zip]
	if !ok {
		sc.mu.Unlock()
		return
	}
	sc.states[zip] = StateDormant
	fill := sc.fills[zip]
	sc.mu.Unlock()

	style := dormantStyle
	style.FillColor = fill
	shape.SetStyle(style)
}

// Deselect explicitly clears the current selection. Hover-out never does
// this; only Deselect and Reset do.
func (sc *ShapeController) Deselect() {
	zip := sc.ctx.SelectedZip()
	if zip == "" {
		return
	}
	sc.demote(zip)
	sc.ctx.setSelected("")
	sc.ctx.EndSelection(zip)
}

// SetColor paints zip's fill from a score bucket. It is idempotent and
// touches only the drawn shape; the abstract selection state is unchanged.
func (sc *ShapeController) SetColor(zip, fillHex string) {
	sc.mu.Lock()
	shape, ok := sc.shapes[zip]
	if !ok {
		sc.mu.Unlock()
		return
	}
	sc.fills[zip] = fillHex
	state := sc.states[zip]
	sc.mu.Unlock()

	var style canvas.Style
	switch state {
	case StateSelected:
		style = selectedStyle
	case StateHovered:
		style = hoverStyle
	default:
		style = dormantStyle
	}
	style.FillColor = fillHex
	shape.SetStyle(style)
}

// FinishSelection drops the in-progress flag once the score paint landed.
func (sc *ShapeController) FinishSelection(zip string) {
	sc.ctx.EndSelection(zip)
}

// Reset deselects and removes every shape, ending the session's registry.
func (sc *ShapeController) Reset() {
	sc.Deselect()
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for zip, shape := range sc.shapes {
		shape.Remove()
		delete(sc.shapes, zip)
		delete(sc.states, zip)
		delete(sc.fills, zip)
	}
}
