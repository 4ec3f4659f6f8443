// Package drag turns raw pointer offsets into a clamped overlay position
// and a normalized crop percentage.
package drag

import (
	"fmt"
	"math"

	"github.com/heimdex/heimdex-cropper/internal/geometry"
)

// State is the drag lifecycle state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Position is the overlay's left-edge offset in pixels together with that
// offset normalized against the drag span.
type Position struct {
	X          float64
	Percentage float64
}

// Label formats the percentage for the overlay readout, e.g. "50.00%".
func (p Position) Label() string {
	return fmt.Sprintf("%.2f%%", p.Percentage)
}

// Controller owns the crop position. It is not safe for concurrent use;
// the owning session serializes access.
type Controller struct {
	state  State
	pos    Position
	seeded bool
}

// NewController returns an idle controller with no position yet.
func NewController() *Controller {
	return &Controller{state: Idle}
}

// State reports the current drag lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	return c.state == Dragging
}

// Position is the last placed or dragged position.
func (c *Controller) Position() Position {
	return c.pos
}

// Seeded reports whether a renderable geometry has placed the overlay yet.
func (c *Controller) Seeded() bool {
	return c.seeded
}

// Fit places the overlay for a freshly resolved geometry. The first
// renderable geometry centers it. Later ones keep the percentage and move
// the pixel offset to the same relative spot inside the new bounds; a zero
// span collapses the position to the left bound at 0%. Degenerate geometry
// is ignored.
func (c *Controller) Fit(g geometry.Geometry) Position {
	if !g.Renderable() {
		return c.pos
	}
	if !c.seeded {
		c.seeded = true
		c.pos = PositionFor(g.CenteredX(), g.Bounds)
		return c.pos
	}

	span := g.Bounds.Span()
	if span == 0 {
		c.pos = Position{X: g.Bounds.Left, Percentage: 0}
		return c.pos
	}
	pct := c.pos.Percentage
	c.pos = Position{
		X:          g.Bounds.Clamp(g.Bounds.Left + pct/100*span),
		Percentage: pct,
	}
	return c.pos
}

// Start moves Idle to Dragging. It returns false when a drag is already
// in progress so callers can skip their side effects.
func (c *Controller) Start() bool {
	if c.state == Dragging {
		return false
	}
	c.state = Dragging
	return true
}

// Move clamps rawX into bounds and updates the position. The boolean is
// true only when the clamped offset differs from the previous one. Moves
// outside an active drag are ignored.
func (c *Controller) Move(rawX float64, bounds geometry.DragBounds) (Position, bool) {
	if c.state != Dragging || math.IsNaN(rawX) {
		return c.pos, false
	}
	next := PositionFor(rawX, bounds)
	if next.X == c.pos.X {
		return c.pos, false
	}
	c.pos = next
	c.seeded = true
	return c.pos, true
}

// End moves Dragging to Idle and returns the finalized position. It
// returns false when no drag was in progress.
func (c *Controller) End() (Position, bool) {
	if c.state != Dragging {
		return c.pos, false
	}
	c.state = Idle
	return c.pos, true
}

// PositionFor clamps x into bounds and normalizes it to [0,100]. A zero
// span yields 0.
func PositionFor(x float64, bounds geometry.DragBounds) Position {
	x = bounds.Clamp(x)
	span := bounds.Span()
	if span == 0 {
		return Position{X: x, Percentage: 0}
	}
	pct := (x - bounds.Left) / span * 100
	return Position{X: x, Percentage: math.Max(0, math.Min(100, pct))}
}
