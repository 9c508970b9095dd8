package engine

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/zurustar/blockstage/pkg/compiler"
)

// State is the scheduling state of one coroutine.
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// suspendReason tags why a suspended coroutine is parked. The resume
// condition is checked once per tick by the wake pass.
type suspendReason int

const (
	reasonNone      suspendReason = iota
	reasonTick                    // plain yield, ready next tick
	reasonDeadline                // engine clock reached wakeTick
	reasonPredicate               // predicate evaluates true
	reasonBroadcast               // broadcast batch drained
	reasonGlide                   // glide tween finished
)

// Task is one suspendable invocation of a compiled handler: a program
// counter plus saved loop counters, owned exclusively by the context that
// spawned it. Destroying the context cancels the task synchronously.
type Task struct {
	id      int
	handler *compiler.Handler
	ctx     *Context

	pc    int
	loops []int

	state    State
	reason   suspendReason
	readySeq int64

	wakeTick  int64
	predicate compiler.Expr

	// channel names the broadcast that spawned this task, for re-trigger
	// suppression while it is still alive.
	channel string
	// waitingOn is the batch this task suspended on via broadcast-and-wait.
	waitingOn *batch
	// memberOf is the batch counting this task, decremented on completion
	// or cancellation.
	memberOf *batch

	glideX, glideY *gween.Tween
	glideDone      bool
}

// State returns the task's scheduling state.
func (t *Task) State() State {
	return t.state
}

// Context returns the owning execution context.
func (t *Task) Context() *Context {
	return t.ctx
}

// Handler returns the compiled handler this task runs.
func (t *Task) Handler() *compiler.Handler {
	return t.handler
}

func (t *Task) finished() bool {
	return t.state == StateCompleted || t.state == StateCancelled
}

// suspend parks the running task with the given reason.
func (t *Task) suspend(reason suspendReason) {
	t.state = StateSuspended
	t.reason = reason
}

// batch is the snapshot of handlers triggered by one broadcast-and-wait.
// The caller resumes when pending reaches zero; cancelled members count as
// completed so a destroyed target never wedges the waiter.
type batch struct {
	channel string
	pending int
	depth   int
}

// runTask executes instructions until the task suspends, completes, or is
// torn down. Compiled code has no busy loops: every unbounded control shape
// carries an explicit yield, so this always terminates within the tick.
func (e *Engine) runTask(t *Task) {
	t.state = StateRunning

	for {
		if e.stopped {
			e.cancelTask(t)
			return
		}
		if t.ctx.destroyed {
			// Stale reference: the owning object is gone. Terminate only
			// this invocation.
			e.log.Debug("task context destroyed mid-run", "task", t.id, "type", t.ctx.Type.ID)
			e.cancelTask(t)
			return
		}
		if t.pc >= len(t.handler.Code) {
			e.completeTask(t)
			return
		}

		in := &t.handler.Code[t.pc]
		switch in.Op {
		case compiler.OpCommand:
			e.command(t, in)
			t.pc++

		case compiler.OpSetVar:
			t.ctx.vars.Set(in.Name, e.eval(t, in.Args[0]))
			t.pc++

		case compiler.OpChangeVar:
			cur, _ := t.ctx.vars.Get(in.Name)
			t.ctx.vars.Set(in.Name, toNumber(cur)+toNumber(e.eval(t, in.Args[0])))
			t.pc++

		case compiler.OpJump:
			t.pc = in.Target

		case compiler.OpJumpIf:
			if toBool(e.eval(t, in.Args[0])) {
				t.pc = in.Target
			} else {
				t.pc++
			}

		case compiler.OpJumpUnless:
			if !toBool(e.eval(t, in.Args[0])) {
				t.pc = in.Target
			} else {
				t.pc++
			}

		case compiler.OpLoopBegin:
			n := int(toNumber(e.eval(t, in.Args[0])))
			if n <= 0 {
				t.pc = in.Target
			} else {
				t.loops = append(t.loops, n)
				t.pc++
			}

		case compiler.OpLoopEnd:
			if len(t.loops) == 0 {
				e.log.Error("loop counter underflow", "task", t.id, "pc", t.pc)
				t.pc++
				break
			}
			last := len(t.loops) - 1
			t.loops[last]--
			if t.loops[last] > 0 {
				t.pc = in.Target
			} else {
				t.loops = t.loops[:last]
				t.pc++
			}

		case compiler.OpYield:
			t.pc = in.Target
			t.suspend(reasonTick)
			return

		case compiler.OpWait:
			secs := toNumber(e.eval(t, in.Args[0]))
			ticks := int64(math.Ceil(secs * float64(e.tps)))
			t.pc++
			if ticks > 0 {
				t.wakeTick = e.tick + ticks
				t.suspend(reasonDeadline)
				return
			}

		case compiler.OpWaitUntil:
			if toBool(e.eval(t, in.Args[0])) {
				t.pc++
				break
			}
			// PC stays on this instruction; the wake pass re-evaluates the
			// predicate once per tick.
			t.predicate = in.Args[0]
			t.suspend(reasonPredicate)
			return

		case compiler.OpBroadcast:
			e.broadcast(toString(e.eval(t, in.Args[0])), nil)
			t.pc++

		case compiler.OpBroadcastWait:
			ch := toString(e.eval(t, in.Args[0]))
			t.pc++
			if b := e.broadcastWait(ch, t); b != nil {
				t.waitingOn = b
				t.suspend(reasonBroadcast)
				return
			}

		case compiler.OpGlide:
			secs := toNumber(e.eval(t, in.Args[0]))
			toX := toNumber(e.eval(t, in.Args[1]))
			toY := toNumber(e.eval(t, in.Args[2]))
			t.pc++
			if secs <= 0 {
				t.ctx.X, t.ctx.Y = toX, toY
				break
			}
			t.glideX = gween.New(float32(t.ctx.X), float32(toX), float32(secs), ease.Linear)
			t.glideY = gween.New(float32(t.ctx.Y), float32(toY), float32(secs), ease.Linear)
			t.glideDone = false
			t.suspend(reasonGlide)
			return

		case compiler.OpCreateClone:
			e.spawnClone(in.Name, t.ctx)
			t.pc++

		case compiler.OpDeleteClone:
			if t.ctx.IsClone() {
				e.destroyContext(t.ctx)
				// destroyContext cancelled this task along with the rest.
				return
			}
			t.pc++

		case compiler.OpStop:
			if in.Name == "all" {
				e.log.Info("stop all requested", "type", t.ctx.Type.ID)
				e.stopAll()
				return
			}
			e.completeTask(t)
			return

		default:
			e.log.Error("unknown instruction", "task", t.id, "op", in.Op, "pc", t.pc)
			t.pc++
		}
	}
}

// completeTask marks the task done and settles any batch counting it.
func (e *Engine) completeTask(t *Task) {
	if t.finished() {
		return
	}
	t.state = StateCompleted
	e.settleBatch(t)
}

// cancelTask abandons the task's pending suspension without side effects.
// A cancelled batch member counts as completed for its waiter.
func (e *Engine) cancelTask(t *Task) {
	if t.finished() {
		return
	}
	t.state = StateCancelled
	t.reason = reasonNone
	t.predicate = nil
	t.glideX, t.glideY = nil, nil
	e.settleBatch(t)
}

func (e *Engine) settleBatch(t *Task) {
	if t.memberOf != nil {
		t.memberOf.pending--
		t.memberOf = nil
	}
}
