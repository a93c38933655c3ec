// Package canvas defines the external map-canvas collaborator: a display
// surface that can draw polygons, emit pointer events, and fit its
// viewport to bounds. The engine only ever talks to these interfaces; the
// real implementation lives with the embedding application.
package canvas

import "github.com/paulmach/orb"

// Event is a pointer event a drawn shape can emit.
type Event string

const (
	EventClick     Event = "click"
	EventMouseOver Event = "mouseover"
	EventMouseOut  Event = "mouseout"
)

// Style is the drawing style for one polygon shape.
type Style struct {
	StrokeColor   string
	StrokeOpacity float64
	StrokeWeight  float64
	FillColor     string
	FillOpacity   float64
	ZIndex        int
}

// Shape is a handle to one drawn polygon.
type Shape interface {
	// SetStyle restyles the shape in place. Must be idempotent.
	SetStyle(style Style)
	// On registers a handler for a pointer event.
	On(event Event, handler func())
	// Remove takes the shape off the canvas. A removed shape is dead; the
	// engine never reuses it.
	Remove()
}

// Canvas is the drawing surface.
type Canvas interface {
	// AddPolygon draws one polygon from its rings and returns its handle.
	AddPolygon(rings []orb.Ring, style Style) Shape
	// FitBounds pans/zooms the viewport to the given bounds.
	FitBounds(bound orb.Bound)
}
