// Package canvastest provides an in-memory Canvas for exercising the
// interaction and composite layers without a real map surface.
package canvastest

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
)

// Fake records every shape drawn on it and lets tests replay pointer
// events against them.
type Fake struct {
	mu     sync.Mutex
	shapes []*FakeShape
	Fitted []orb.Bound
}

// New creates an empty fake canvas.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) AddPolygon(rings []orb.Ring, style canvas.Style) canvas.Shape {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &FakeShape{Rings: rings, Style: style, handlers: map[canvas.Event][]func(){}}
	f.shapes = append(f.shapes, s)
	return s
}

func (f *Fake) FitBounds(bound orb.Bound) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fitted = append(f.Fitted, bound)
}

// Shapes returns all shapes ever added, removed ones included.
func (f *Fake) Shapes() []*FakeShape {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeShape(nil), f.shapes...)
}

// Live returns the shapes still on the canvas.
func (f *Fake) Live() []*FakeShape {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*FakeShape
	for _, s := range f.shapes {
		if !s.Removed() {
			out = append(out, s)
		}
	}
	return out
}

// FakeShape is one recorded polygon.
type FakeShape struct {
	Rings []orb.Ring

	mu       sync.Mutex
	Style    canvas.Style
	removed  bool
	handlers map[canvas.Event][]func()
	// StyleHistory records every style ever applied, first to last.
	StyleHistory []canvas.Style
}

func (s *FakeShape) SetStyle(style canvas.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Style = style
	s.StyleHistory = append(s.StyleHistory, style)
}

func (s *FakeShape) On(event canvas.Event, handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], handler)
}

func (s *FakeShape) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
}

// Removed reports whether the shape was taken off the canvas.
func (s *FakeShape) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// Fire replays a pointer event into the shape's registered handlers.
func (s *FakeShape) Fire(event canvas.Event) {
	s.mu.Lock()
	handlers := append([]func(){}, s.handlers[event]...)
	s.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

// CurrentStyle returns the most recently applied style.
func (s *FakeShape) CurrentStyle() canvas.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Style
}
