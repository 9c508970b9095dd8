package engine

import (
	"math"

	"github.com/zurustar/blockstage/pkg/compiler"
)

// command executes one object command against the task's context. Resource
// misses (unknown sound, out-of-range costume) degrade and log; they never
// stop the procedure.
func (e *Engine) command(t *Task, in *compiler.Instr) {
	ctx := t.ctx
	arg := func(i int) float64 { return toNumber(e.eval(t, in.Args[i])) }

	switch in.Cmd {
	case compiler.CmdGoToXY:
		ctx.X, ctx.Y = arg(0), arg(1)
	case compiler.CmdSetX:
		ctx.X = arg(0)
	case compiler.CmdSetY:
		ctx.Y = arg(0)
	case compiler.CmdChangeX:
		ctx.X += arg(0)
	case compiler.CmdChangeY:
		ctx.Y += arg(0)
	case compiler.CmdPointDirection:
		ctx.Direction = arg(0)
	case compiler.CmdMoveSteps:
		// Heading convention: 0 = up, 90 = right, screen y grows down.
		rad := ctx.Direction * math.Pi / 180
		steps := arg(0)
		ctx.X += steps * math.Sin(rad)
		ctx.Y -= steps * math.Cos(rad)

	case compiler.CmdShow:
		ctx.Visible = true
	case compiler.CmdHide:
		ctx.Visible = false
	case compiler.CmdSwitchCostume:
		e.switchCostume(ctx, e.eval(t, in.Args[0]))
	case compiler.CmdNextCostume:
		if n := len(ctx.Type.Costumes); n > 0 {
			ctx.Costume = (ctx.Costume + 1) % n
		}
	case compiler.CmdSetSize:
		ctx.Size = math.Max(arg(0), 1)

	case compiler.CmdEnablePhysics:
		ctx.Physics.Enabled = true
	case compiler.CmdDisablePhysics:
		ctx.Physics.Enabled = false
		ctx.Physics.VX, ctx.Physics.VY = 0, 0
	case compiler.CmdSetVelocity:
		ctx.Physics.VX, ctx.Physics.VY = arg(0), arg(1)
	case compiler.CmdApplyImpulse:
		ctx.Physics.VX += arg(0)
		ctx.Physics.VY += arg(1)
	case compiler.CmdSetGravity:
		ctx.Physics.Gravity = arg(0)

	case compiler.CmdPlaySound:
		e.playSound(toString(e.eval(t, in.Args[0])), false)
	case compiler.CmdPlayMusic:
		e.playSound(toString(e.eval(t, in.Args[0])), true)
	case compiler.CmdStopMusic:
		if e.sound != nil {
			e.sound.StopMusic()
		}

	default:
		e.log.Error("unknown object command", "cmd", in.Cmd.String())
	}
}

// switchCostume accepts a 1-based costume number or a costume name.
func (e *Engine) switchCostume(ctx *Context, sel any) {
	names := ctx.Type.Costumes
	if len(names) == 0 {
		return
	}
	if name, ok := sel.(string); ok {
		for i, n := range names {
			if n == name {
				ctx.Costume = i
				return
			}
		}
		e.log.Debug("unknown costume name", "type", ctx.Type.ID, "costume", name)
		return
	}
	idx := int(toNumber(sel)) - 1
	if idx < 0 {
		idx = 0
	}
	ctx.Costume = idx % len(names)
}

func (e *Engine) playSound(name string, music bool) {
	if e.sound == nil || name == "" {
		return
	}
	var err error
	if music {
		err = e.sound.PlayMusic(name)
	} else {
		err = e.sound.PlayEffect(name)
	}
	if err != nil {
		e.log.Error("sound playback failed", "name", name, "error", err)
	}
}
