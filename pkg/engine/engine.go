// Package engine owns all scheduling for compiled block handlers. It runs
// a single-threaded cooperative tick loop: events are dispatched to
// matching handlers in object-registration order, ready coroutines resume
// in the order they became ready, then physics and animation advance. A
// procedure runs uninterrupted between explicit suspension points; there is
// no preemption and no parallel execution.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/zurustar/blockstage/pkg/compiler"
	"github.com/zurustar/blockstage/pkg/logger"
)

// ErrTerminated is returned by Tick once the engine has stopped.
var ErrTerminated = errors.New("engine terminated")

// maxBroadcastDepth bounds nested broadcast-and-wait chains. Beyond it the
// call degrades to a plain broadcast instead of risking unbounded
// re-entrant waiting.
const maxBroadcastDepth = 8

// DefaultTPS is the tick rate the engine clock assumes.
const DefaultTPS = 60

type touchKey struct {
	ctxID   int
	handler *compiler.Handler
}

// Engine schedules every live object's coroutines inside one tick loop.
type Engine struct {
	log *slog.Logger

	// globals is the explicitly owned shared scope, handed by reference to
	// every context through its scope chain.
	globals *Scope

	types   map[string]*ObjectType
	objects []*Context // live objects in registration order
	tasks   []*Task    // coroutines in spawn order

	nextContextID int
	nextTaskID    int
	nextReady     int64

	tick int64
	tps  int

	rng *rand.Rand

	input  InputSource
	sound  SoundPlayer
	assets AssetSource

	touchPrev map[touchKey]bool

	headless bool
	timeout  time.Duration
	started  bool
	stopped  bool

	render *renderState
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithHeadless disables rendering and asset loading; the tick loop is
// driven directly by the caller.
func WithHeadless(headless bool) Option {
	return func(e *Engine) { e.headless = headless }
}

// WithTPS sets the tick rate the engine clock assumes.
func WithTPS(tps int) Option {
	return func(e *Engine) {
		if tps > 0 {
			e.tps = tps
		}
	}
}

// WithSeed seeds the random reporter, making headless runs reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithTimeout stops the engine after the given duration of engine time.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) { e.timeout = timeout }
}

// WithInput sets the input source.
func WithInput(in InputSource) Option {
	return func(e *Engine) { e.input = in }
}

// WithSound sets the sound player used by sound blocks.
func WithSound(sp SoundPlayer) Option {
	return func(e *Engine) { e.sound = sp }
}

// WithAssets sets the costume asset source.
func WithAssets(as AssetSource) Option {
	return func(e *Engine) { e.assets = as }
}

// New creates an engine with an empty scene.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:       logger.GetLogger(),
		globals:   NewScope(nil),
		types:     make(map[string]*ObjectType),
		touchPrev: make(map[touchKey]bool),
		tps:       DefaultTPS,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
	return e
}

// Globals returns the shared global variable scope.
func (e *Engine) Globals() *Scope {
	return e.globals
}

// TickCount returns the number of regular ticks processed so far.
func (e *Engine) TickCount() int64 {
	return e.tick
}

// TPS returns the tick rate the engine clock assumes.
func (e *Engine) TPS() int {
	return e.tps
}

// RegisterType registers an object type with its compiled handlers and the
// local defaults seeding every instance.
func (e *Engine) RegisterType(id, name string, costumes []string, defaults map[string]any, handlers []*compiler.Handler) *ObjectType {
	ot := &ObjectType{
		ID:       id,
		Name:     name,
		Costumes: costumes,
		Handlers: handlers,
		locals:   NewScope(e.globals),
	}
	for k, v := range defaults {
		ot.locals.Define(k, v)
	}
	e.types[id] = ot
	e.log.Debug("object type registered",
		"id", id, "name", name, "handlers", len(handlers), "costumes", len(costumes))
	return ot
}

// Place creates a live object of the given type in the scene. Placing
// after Start starts the object's forever handlers immediately; game-start
// handlers never re-fire.
func (e *Engine) Place(typeID string, x, y float64) (*Context, error) {
	ot, ok := e.types[typeID]
	if !ok {
		return nil, fmt.Errorf("unknown object type %q", typeID)
	}
	ctx := e.newContext(ot, 0)
	ctx.X, ctx.Y = x, y
	e.objects = append(e.objects, ctx)
	if e.started {
		e.startHandlers(ctx, false)
	}
	return ctx, nil
}

func (e *Engine) newContext(ot *ObjectType, originID int) *Context {
	e.nextContextID++
	ctx := &Context{
		ID:        e.nextContextID,
		OriginID:  originID,
		Type:      ot,
		Direction: 90,
		Size:      100,
		Visible:   true,
		BoxW:      defaultBoxSize,
		BoxH:      defaultBoxSize,
		vars:      NewScope(ot.locals),
	}
	// Seed the instance scope from the type-local defaults. Later instance
	// writes never reach the defaults or sibling instances.
	for k, v := range ot.locals.Snapshot() {
		ctx.vars.Define(k, v)
	}
	return ctx
}

// startHandlers spawns the handlers that begin at scene load (or clone
// spawn): game-start when asked, forever always.
func (e *Engine) startHandlers(ctx *Context, gameStart bool) {
	for _, h := range ctx.Type.Handlers {
		switch h.Event {
		case compiler.EventGameStart:
			if gameStart {
				e.spawnTask(h, ctx)
			}
		case compiler.EventForever:
			e.spawnTask(h, ctx)
		}
	}
}

// Start fires game-start handlers exactly once and runs them to their
// first suspension, before the first regular tick.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	for _, ctx := range e.objects {
		e.startHandlers(ctx, true)
	}
	e.runPass()
	e.sweep()
	e.log.Info("scene started", "objects", len(e.objects), "tasks", len(e.tasks))
}

// Tick advances the engine by one frame: events, coroutine resumption,
// physics and animation, in that order. Rendering happens separately in
// Draw. Returns ErrTerminated once the engine has stopped.
func (e *Engine) Tick() error {
	if e.stopped {
		return ErrTerminated
	}
	if !e.started {
		e.Start()
	}

	e.tick++
	if e.input != nil {
		e.input.Poll()
	}

	e.dispatchEvents()
	e.wakePass()
	e.runPass()
	e.stepMotion()
	e.sweep()

	if e.timeout > 0 && e.tick >= int64(e.timeout.Seconds()*float64(e.tps)) {
		e.log.Info("engine timeout exceeded", "ticks", e.tick)
		e.stopAll()
	}
	if e.stopped {
		return ErrTerminated
	}
	return nil
}

// Terminate stops the engine, cancelling every coroutine.
func (e *Engine) Terminate() {
	if !e.stopped {
		e.stopAll()
		e.log.Info("engine termination requested")
	}
}

// Destroy tears down one live object: all of its coroutines are cancelled
// synchronously and its context is removed. Destroying twice is a no-op.
func (e *Engine) Destroy(ctx *Context) {
	e.destroyContext(ctx)
}

// spawnTask creates a Ready coroutine for a handler on a context.
func (e *Engine) spawnTask(h *compiler.Handler, ctx *Context) *Task {
	e.nextTaskID++
	t := &Task{
		id:       e.nextTaskID,
		handler:  h,
		ctx:      ctx,
		state:    StateReady,
		readySeq: e.nextSeq(),
	}
	e.tasks = append(e.tasks, t)
	return t
}

func (e *Engine) nextSeq() int64 {
	e.nextReady++
	return e.nextReady
}

// dispatchEvents fires newly-arrived events to matching handlers in
// object-registration order.
func (e *Engine) dispatchEvents() {
	if e.input != nil {
		for _, key := range e.input.JustPressed() {
			e.fireEvent(compiler.EventKey, func(h *compiler.Handler, _ *Context) bool {
				return h.Param == key
			})
		}
		if x, y, ok := e.input.JustClicked(); ok {
			e.fireEvent(compiler.EventClicked, func(_ *compiler.Handler, ctx *Context) bool {
				minX, minY, maxX, maxY := ctx.bounds()
				return ctx.Visible && x >= minX && x <= maxX && y >= minY && y <= maxY
			})
		}
	}
	e.fireTouchEvents()
}

// fireEvent spawns a coroutine per matching (object, handler) pair. A pair
// with a still-live invocation is skipped rather than piled up.
func (e *Engine) fireEvent(event compiler.EventKind, match func(*compiler.Handler, *Context) bool) {
	for _, ctx := range e.objects {
		if ctx.destroyed {
			continue
		}
		for _, h := range ctx.Type.Handlers {
			if h.Event != event || !match(h, ctx) {
				continue
			}
			if e.liveTaskFor(ctx, h) != nil {
				continue
			}
			e.spawnTask(h, ctx)
		}
	}
}

// fireTouchEvents edge-triggers touching handlers when an overlap begins.
func (e *Engine) fireTouchEvents() {
	for _, ctx := range e.objects {
		if ctx.destroyed {
			continue
		}
		for _, h := range ctx.Type.Handlers {
			if h.Event != compiler.EventTouching {
				continue
			}
			key := touchKey{ctxID: ctx.ID, handler: h}
			now := e.overlapAny(ctx, h.Param) != nil
			was := e.touchPrev[key]
			e.touchPrev[key] = now
			if now && !was && e.liveTaskFor(ctx, h) == nil {
				e.spawnTask(h, ctx)
			}
		}
	}
}

func (e *Engine) liveTaskFor(ctx *Context, h *compiler.Handler) *Task {
	for _, t := range e.tasks {
		if t.ctx == ctx && t.handler == h && !t.finished() {
			return t
		}
	}
	return nil
}

// overlapAny returns the first live object overlapping ctx whose type name
// matches target ("" matches any other object).
func (e *Engine) overlapAny(ctx *Context, target string) *Context {
	for _, o := range e.objects {
		if o == ctx || o.destroyed {
			continue
		}
		if target != "" && o.Type.Name != target {
			continue
		}
		if ctx.overlaps(o) {
			return o
		}
	}
	return nil
}

// wakePass re-checks every suspended coroutine's resume condition, once
// per tick, in spawn order.
func (e *Engine) wakePass() {
	for _, t := range e.tasks {
		if t.state != StateSuspended {
			continue
		}
		if t.ctx.destroyed {
			e.cancelTask(t)
			continue
		}
		ready := false
		switch t.reason {
		case reasonTick:
			ready = true
		case reasonDeadline:
			ready = e.tick >= t.wakeTick
		case reasonPredicate:
			ready = e.evalBool(t, t.predicate)
		case reasonBroadcast:
			ready = t.waitingOn == nil || t.waitingOn.pending <= 0
		case reasonGlide:
			ready = t.glideDone
		}
		if ready {
			t.state = StateReady
			t.readySeq = e.nextSeq()
		}
	}
}

// runPass resumes Ready coroutines in the order they became ready, until
// none remain. Coroutines spawned while running (broadcasts, clones) join
// the same pass at the back of the order.
func (e *Engine) runPass() {
	for {
		var next *Task
		for _, t := range e.tasks {
			if t.state != StateReady {
				continue
			}
			if next == nil || t.readySeq < next.readySeq {
				next = t
			}
		}
		if next == nil {
			return
		}
		e.runTask(next)
	}
}

// stepMotion advances physics and active glides by one tick of engine
// time.
func (e *Engine) stepMotion() {
	dt := 1.0 / float64(e.tps)

	for _, ctx := range e.objects {
		if ctx.destroyed || !ctx.Physics.Enabled {
			continue
		}
		ctx.Physics.VY += ctx.Physics.Gravity * dt
		ctx.X += ctx.Physics.VX * dt
		ctx.Y += ctx.Physics.VY * dt
	}

	for _, t := range e.tasks {
		if t.state != StateSuspended || t.reason != reasonGlide || t.ctx.destroyed {
			continue
		}
		x, doneX := t.glideX.Update(float32(dt))
		y, doneY := t.glideY.Update(float32(dt))
		t.ctx.X, t.ctx.Y = float64(x), float64(y)
		if doneX && doneY {
			t.glideDone = true
		}
	}
}

// sweep drops finished coroutines and destroyed contexts. Batches settled
// at completion time keep waiters correct regardless of sweep timing.
func (e *Engine) sweep() {
	liveTasks := e.tasks[:0]
	for _, t := range e.tasks {
		if !t.finished() {
			liveTasks = append(liveTasks, t)
		}
	}
	e.tasks = liveTasks

	liveObjects := e.objects[:0]
	for _, ctx := range e.objects {
		if !ctx.destroyed {
			liveObjects = append(liveObjects, ctx)
		}
	}
	e.objects = liveObjects
}

// broadcast spawns a coroutine for every handler currently registered on
// the channel, in object-registration order. A handler whose previous
// invocation on this channel is still alive is not re-triggered, which is
// what keeps re-entrant broadcast-and-wait bounded.
func (e *Engine) broadcast(ch string, b *batch) int {
	spawned := 0
	for _, ctx := range e.objects {
		if ctx.destroyed {
			continue
		}
		for _, h := range ctx.Type.Handlers {
			if h.Event != compiler.EventReceive || h.Param != ch {
				continue
			}
			if e.liveTaskFor(ctx, h) != nil {
				continue
			}
			t := e.spawnTask(h, ctx)
			t.channel = ch
			if b != nil {
				t.memberOf = b
				b.pending++
			}
			spawned++
		}
	}
	e.log.Debug("broadcast", "channel", ch, "spawned", spawned, "waited", b != nil)
	return spawned
}

// broadcastWait fires the channel and returns the batch the caller must
// suspend on, or nil when the caller may continue immediately (nothing
// matched, or the nesting guard tripped).
func (e *Engine) broadcastWait(ch string, from *Task) *batch {
	depth := 1
	if from.memberOf != nil {
		depth = from.memberOf.depth + 1
	}
	if depth > maxBroadcastDepth {
		e.log.Warn("broadcast-and-wait nesting limit reached, firing without waiting",
			"channel", ch, "depth", depth)
		e.broadcast(ch, nil)
		return nil
	}

	b := &batch{channel: ch, depth: depth}
	if e.broadcast(ch, b) == 0 {
		return nil
	}
	return b
}

// spawnClone creates an independent live object copying the origin's
// current transform, costume, physics, and instance variables. The clone
// shares the origin's handlers; its forever handlers start immediately.
// A vanished origin makes the whole operation a no-op.
func (e *Engine) spawnClone(target string, from *Context) *Context {
	origin := from
	if target != "" && target != "myself" {
		origin = nil
		for _, o := range e.objects {
			if !o.destroyed && o.Type.Name == target {
				origin = o
				break
			}
		}
		if origin == nil {
			e.log.Debug("clone target not found", "target", target)
			return nil
		}
	}
	if origin.destroyed {
		return nil
	}

	clone := e.newContext(origin.Type, origin.ID)
	clone.X, clone.Y = origin.X, origin.Y
	clone.Direction = origin.Direction
	clone.Size = origin.Size
	clone.Visible = origin.Visible
	clone.Costume = origin.Costume
	clone.Physics = origin.Physics
	clone.BoxW, clone.BoxH = origin.BoxW, origin.BoxH
	for k, v := range origin.vars.Snapshot() {
		clone.vars.Define(k, v)
	}

	e.objects = append(e.objects, clone)
	e.startHandlers(clone, false)
	e.log.Debug("clone spawned", "id", clone.ID, "origin", origin.ID, "type", origin.Type.ID)
	return clone
}

// destroyContext synchronously cancels every coroutine the context owns
// and marks it gone. Idempotent.
func (e *Engine) destroyContext(ctx *Context) {
	if ctx == nil || ctx.destroyed {
		return
	}
	ctx.destroyed = true
	for _, t := range e.tasks {
		if t.ctx == ctx {
			e.cancelTask(t)
		}
	}
	for k := range e.touchPrev {
		if k.ctxID == ctx.ID {
			delete(e.touchPrev, k)
		}
	}
	e.log.Debug("context destroyed", "id", ctx.ID, "type", ctx.Type.ID, "clone", ctx.IsClone())
}

func (e *Engine) stopAll() {
	for _, t := range e.tasks {
		e.cancelTask(t)
	}
	e.stopped = true
}

// Objects returns the live contexts in registration order.
func (e *Engine) Objects() []*Context {
	out := make([]*Context, len(e.objects))
	copy(out, e.objects)
	return out
}
