package engine

import (
	"github.com/zurustar/blockstage/pkg/compiler"
)

// defaultBoxSize is the collision-box edge used until a costume image
// provides real dimensions (and always in headless mode).
const defaultBoxSize = 32.0

// ObjectType is one authored object definition: its compiled handlers, its
// costume list, and the defaults seeding every instance's variables.
// Handlers are shared read-only by every live instance and clone.
type ObjectType struct {
	ID       string
	Name     string
	Costumes []string
	Handlers []*compiler.Handler

	// locals is the shared object-type-local scope, parented on the
	// engine's global scope. Its bindings double as the per-instance
	// defaults copied at context creation.
	locals *Scope
}

// Locals returns the object-type-local scope.
func (ot *ObjectType) Locals() *Scope {
	return ot.locals
}

// PhysicsState is the simulated state advanced during the motion phase of
// each tick. Velocity is in pixels per second, gravity in px/s² downward.
type PhysicsState struct {
	Enabled bool
	VX, VY  float64
	Gravity float64
}

// Context is the live per-object bundle compiled procedures act on:
// transform, costume state, physics state, and instance variables. One is
// created when an object is placed or a clone spawns, and destroyed with
// the object; no coroutine outlives it.
type Context struct {
	ID int

	// OriginID is set only for clones: a non-owning back-reference to the
	// context the clone was spawned from, used for lookups only.
	OriginID int

	Type *ObjectType

	X, Y      float64
	Direction float64 // degrees, 90 = right, 0 = up
	Size      float64 // percent of natural size

	Visible bool
	Costume int // index into Type.Costumes

	Physics PhysicsState

	// BoxW/BoxH is the unscaled collision box, updated from the costume
	// image when one loads.
	BoxW, BoxH float64

	vars      *Scope
	destroyed bool
}

// Vars returns the instance variable scope.
func (c *Context) Vars() *Scope {
	return c.vars
}

// IsClone reports whether this context was spawned as a clone.
func (c *Context) IsClone() bool {
	return c.OriginID != 0
}

// Destroyed reports whether the context has been torn down. A destroyed
// context is inert: acting on it terminates only the acting procedure.
func (c *Context) Destroyed() bool {
	return c.destroyed
}

// CostumeName returns the current costume name, or "" when the type has no
// costumes.
func (c *Context) CostumeName() string {
	if len(c.Type.Costumes) == 0 {
		return ""
	}
	if c.Costume < 0 || c.Costume >= len(c.Type.Costumes) {
		return c.Type.Costumes[0]
	}
	return c.Type.Costumes[c.Costume]
}

// bounds returns the current axis-aligned collision box.
func (c *Context) bounds() (minX, minY, maxX, maxY float64) {
	scale := c.Size / 100
	w := c.BoxW * scale
	h := c.BoxH * scale
	return c.X - w/2, c.Y - h/2, c.X + w/2, c.Y + h/2
}

// overlaps reports AABB overlap between two live contexts.
func (c *Context) overlaps(o *Context) bool {
	if c == o || c.destroyed || o.destroyed {
		return false
	}
	aMinX, aMinY, aMaxX, aMaxY := c.bounds()
	bMinX, bMinY, bMaxX, bMaxY := o.bounds()
	return aMinX < bMaxX && bMinX < aMaxX && aMinY < bMaxY && bMinY < aMaxY
}
