// Package interaction owns the per-zip visual polygons on the map canvas
// and their three-state lifecycle (dormant, hovered, selected).
package interaction

import (
	"sync"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
)

// MapInteractionContext is the single home for map-scoped mutable state:
// the current selection, the selection-in-progress flag, and the
// composite-mode flag. Everything goes through accessors; nothing pokes
// fields from outside the package.
type MapInteractionContext struct {
	canvas canvas.Canvas

	mu               sync.Mutex
	selectedZip      string
	pendingZip       string
	compositeLoading bool
	compositeActive  bool
}

// NewContext creates a context bound to one canvas.
func NewContext(cv canvas.Canvas) *MapInteractionContext {
	return &MapInteractionContext{canvas: cv}
}

// Canvas returns the drawing surface.
func (c *MapInteractionContext) Canvas() canvas.Canvas { return c.canvas }

// SelectedZip returns the zip currently holding the selection, or "".
func (c *MapInteractionContext) SelectedZip() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedZip
}

// BeginSelection flags a selection in progress for zip. Handlers that fire
// while the score fetch is still in flight see the tentative state and do
// not race the eventual paint.
func (c *MapInteractionContext) BeginSelection(zip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingZip = zip
}

// EndSelection clears the in-progress flag for zip if it still owns it.
func (c *MapInteractionContext) EndSelection(zip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingZip == zip {
		c.pendingZip = ""
	}
}

// SelectionPending reports whether a selection fetch is in flight.
func (c *MapInteractionContext) SelectionPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingZip != ""
}

func (c *MapInteractionContext) setSelected(zip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedZip = zip
}

// SetCompositeActive toggles composite (city/county) mode.
func (c *MapInteractionContext) SetCompositeActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compositeActive = active
}

// CompositeActive reports whether a composite view currently owns the map.
func (c *MapInteractionContext) CompositeActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compositeActive
}

// SetCompositeLoading flags that a composite render is resolving members.
func (c *MapInteractionContext) SetCompositeLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compositeLoading = loading
}

// CompositeLoading reports whether a composite render is in flight.
func (c *MapInteractionContext) CompositeLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compositeLoading
}
