// Package compiler turns serialized block-node trees into compiled
// handlers. Each top-level event block compiles independently: one bad
// script fails alone while the rest of the program stays runnable.
//
// Compilation is deterministic. Traversal is depth-first and left-to-right:
// value slots in schema order first, then statement-slot chains in next
// order, which fixes the evaluation and side-effect order of the emitted
// code.
package compiler

import (
	"log/slog"

	"github.com/zurustar/blockstage/pkg/block"
	"github.com/zurustar/blockstage/pkg/logger"
)

// Compiler compiles block programs for one or more object types.
type Compiler struct {
	log *slog.Logger
}

// Option is a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// New creates a new Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of compiling one Block Program: the handlers that
// compiled plus one error per script that did not.
type Result struct {
	Handlers []*Handler
	Errors   []*Error
}

// Compile compiles every top-level script of a Block Program for the given
// object type. Scripts compile in program order; a failing script
// contributes an error and no handler.
func (c *Compiler) Compile(typeID string, prog *block.Program) *Result {
	res := &Result{}
	for _, root := range prog.Scripts {
		h, err := c.compileScript(typeID, root)
		if err != nil {
			c.log.Warn("script failed to compile",
				"type", typeID, "node", err.NodeID, "kind", err.Kind, "reason", err.Message)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Handlers = append(res.Handlers, h)
	}
	c.log.Debug("program compiled",
		"type", typeID, "handlers", len(res.Handlers), "errors", len(res.Errors))
	return res
}

// compileScript compiles one event-rooted script into a handler.
func (c *Compiler) compileScript(typeID string, root *block.Node) (*Handler, *Error) {
	if root == nil {
		return nil, errAt(nil, "empty script")
	}
	if !root.Type.Known() {
		return nil, errAt(root, "unknown block kind")
	}
	if !root.Type.IsEvent() {
		return nil, errAt(root, "script must be rooted at an event block")
	}

	h := &Handler{TypeID: typeID, Root: root.ID}
	switch root.Type {
	case block.WhenGameStart:
		h.Event = EventGameStart
	case block.WhenKeyPressed:
		h.Event = EventKey
		h.Param = root.FieldString("key", "SPACE")
	case block.WhenClicked:
		h.Event = EventClicked
	case block.WhenForever:
		h.Event = EventForever
	case block.WhenReceive:
		h.Event = EventReceive
		h.Param = root.FieldString("channel", "message")
	case block.WhenTouching:
		h.Event = EventTouching
		// An empty target matches any other live object.
		h.Param = root.FieldString("target", "")
	}

	b := &builder{}
	if h.Event == EventForever {
		// A forever event runs its whole body once per tick, then yields.
		head := len(b.code)
		if err := b.stmtChain(root.Next); err != nil {
			return nil, err
		}
		b.emit(Instr{Op: OpYield, Target: head})
	} else {
		if err := b.stmtChain(root.Next); err != nil {
			return nil, err
		}
	}
	h.Code = b.code
	return h, nil
}

// builder accumulates instructions for one handler.
type builder struct {
	code []Instr
}

// emit appends an instruction and returns its PC, for later patching.
func (b *builder) emit(i Instr) int {
	b.code = append(b.code, i)
	return len(b.code) - 1
}

// stmtChain compiles a statement chain linked via next.
func (b *builder) stmtChain(n *block.Node) *Error {
	for ; n != nil; n = n.Next {
		if err := b.stmt(n); err != nil {
			return err
		}
	}
	return nil
}

// cmdOf maps plain command block kinds to their object command.
var cmdOf = map[block.Kind]Command{
	block.GoToXY:         CmdGoToXY,
	block.SetX:           CmdSetX,
	block.SetY:           CmdSetY,
	block.ChangeX:        CmdChangeX,
	block.ChangeY:        CmdChangeY,
	block.PointDirection: CmdPointDirection,
	block.MoveSteps:      CmdMoveSteps,
	block.Show:           CmdShow,
	block.Hide:           CmdHide,
	block.SwitchCostume:  CmdSwitchCostume,
	block.NextCostume:    CmdNextCostume,
	block.SetSize:        CmdSetSize,
	block.EnablePhysics:  CmdEnablePhysics,
	block.DisablePhysics: CmdDisablePhysics,
	block.SetVelocity:    CmdSetVelocity,
	block.ApplyImpulse:   CmdApplyImpulse,
	block.SetGravity:     CmdSetGravity,
	block.PlaySound:      CmdPlaySound,
	block.PlayMusic:      CmdPlayMusic,
	block.StopMusic:      CmdStopMusic,
}

// stmt compiles one statement block.
func (b *builder) stmt(n *block.Node) *Error {
	if cmd, ok := cmdOf[n.Type]; ok {
		args, err := b.slotArgs(n)
		if err != nil {
			return err
		}
		b.emit(Instr{Op: OpCommand, Cmd: cmd, Args: args})
		return nil
	}

	switch n.Type {
	case block.Repeat:
		return b.repeat(n)
	case block.RepeatUntil:
		return b.repeatUntil(n)
	case block.WaitUntil:
		cond, err := b.slotExpr(n, "condition")
		if err != nil {
			return err
		}
		b.emit(Instr{Op: OpWaitUntil, Args: []Expr{cond}})
		return nil
	case block.Forever:
		head := len(b.code)
		if err := b.stmtChain(n.Statement("body")); err != nil {
			return err
		}
		b.emit(Instr{Op: OpYield, Target: head})
		return nil
	case block.Wait:
		secs, err := b.slotExpr(n, "seconds")
		if err != nil {
			return err
		}
		b.emit(Instr{Op: OpWait, Args: []Expr{secs}})
		return nil
	case block.IfThen:
		return b.ifThen(n)
	case block.IfElse:
		return b.ifElse(n)
	case block.Stop:
		scope := n.FieldString("scope", "script")
		if scope != "script" && scope != "all" {
			return errAt(n, "invalid stop scope %q", scope)
		}
		b.emit(Instr{Op: OpStop, Name: scope})
		return nil

	case block.Broadcast, block.BroadcastWait:
		ch, err := b.slotExpr(n, "channel")
		if err != nil {
			return err
		}
		op := OpBroadcast
		if n.Type == block.BroadcastWait {
			op = OpBroadcastWait
		}
		b.emit(Instr{Op: op, Args: []Expr{ch}})
		return nil

	case block.CreateClone:
		b.emit(Instr{Op: OpCreateClone, Name: n.FieldString("target", "myself")})
		return nil
	case block.DeleteClone:
		b.emit(Instr{Op: OpDeleteClone})
		return nil

	case block.GlideTo:
		args, err := b.slotArgs(n)
		if err != nil {
			return err
		}
		b.emit(Instr{Op: OpGlide, Args: args})
		return nil

	case block.SetVariable, block.ChangeVariable:
		name := n.FieldString("name", "")
		if name == "" {
			return errAt(n, "variable block needs a name field")
		}
		var value Expr
		var err *Error
		op := OpSetVar
		if n.Type == block.SetVariable {
			value, err = b.slotExpr(n, "value")
		} else {
			op = OpChangeVar
			value, err = b.slotExpr(n, "delta")
		}
		if err != nil {
			return err
		}
		b.emit(Instr{Op: op, Name: name, Args: []Expr{value}})
		return nil
	}

	if !n.Type.Known() {
		return errAt(n, "unknown block kind")
	}
	if n.Type.IsEvent() {
		return errAt(n, "event block nested inside a script")
	}
	if n.Type.IsReporter() {
		return errAt(n, "reporter block used as a statement")
	}
	return errAt(n, "block kind is not a statement")
}

// repeat compiles a counted loop. The count is evaluated once at entry and
// the body runs exactly max(N,0) times with no implicit yield between
// iterations.
func (b *builder) repeat(n *block.Node) *Error {
	times, err := b.slotExpr(n, "times")
	if err != nil {
		return err
	}
	begin := b.emit(Instr{Op: OpLoopBegin, Args: []Expr{times}})
	head := len(b.code)
	if err := b.stmtChain(n.Statement("body")); err != nil {
		return err
	}
	b.emit(Instr{Op: OpLoopEnd, Target: head})
	b.code[begin].Target = len(b.code)
	return nil
}

// repeatUntil compiles a polling loop: the predicate is re-evaluated once
// per tick, with a yield at every iteration boundary so it never busy-loops
// within a single tick.
func (b *builder) repeatUntil(n *block.Node) *Error {
	head := len(b.code)
	cond, err := b.slotExpr(n, "condition")
	if err != nil {
		return err
	}
	exit := b.emit(Instr{Op: OpJumpIf, Args: []Expr{cond}})
	if err := b.stmtChain(n.Statement("body")); err != nil {
		return err
	}
	b.emit(Instr{Op: OpYield, Target: head})
	b.code[exit].Target = len(b.code)
	return nil
}

func (b *builder) ifThen(n *block.Node) *Error {
	cond, err := b.slotExpr(n, "condition")
	if err != nil {
		return err
	}
	skip := b.emit(Instr{Op: OpJumpUnless, Args: []Expr{cond}})
	if err := b.stmtChain(n.Statement("then")); err != nil {
		return err
	}
	b.code[skip].Target = len(b.code)
	return nil
}

func (b *builder) ifElse(n *block.Node) *Error {
	cond, err := b.slotExpr(n, "condition")
	if err != nil {
		return err
	}
	toElse := b.emit(Instr{Op: OpJumpUnless, Args: []Expr{cond}})
	if err := b.stmtChain(n.Statement("then")); err != nil {
		return err
	}
	toEnd := b.emit(Instr{Op: OpJump})
	b.code[toElse].Target = len(b.code)
	if err := b.stmtChain(n.Statement("else")); err != nil {
		return err
	}
	b.code[toEnd].Target = len(b.code)
	return nil
}

// slotArgs compiles every value slot of the node in schema order.
func (b *builder) slotArgs(n *block.Node) ([]Expr, *Error) {
	shape := block.Shapes[n.Type]
	args := make([]Expr, 0, len(shape.Values))
	for _, slot := range shape.Values {
		e, err := b.slotExpr(n, slot.Name)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return args, nil
}

// slotExpr compiles the named value slot. A missing slot compiles to the
// kind's documented safe default so partially-filled programs stay
// runnable; only malformed filled slots are errors.
func (b *builder) slotExpr(n *block.Node, name string) (Expr, *Error) {
	slot, ok := n.Type.Slot(name)
	if !ok {
		return nil, errAt(n, "block kind has no value slot %q", name)
	}
	child := n.Value(name)
	if child == nil {
		return defaultExpr(slot.Default), nil
	}
	return b.expr(child)
}

// defaultExpr lifts a schema default into a literal expression.
func defaultExpr(v any) Expr {
	switch d := v.(type) {
	case float64:
		return NumberLit{Value: d}
	case string:
		return StringLit{Value: d}
	case bool:
		return BoolLit{Value: d}
	default:
		return NumberLit{}
	}
}

var binOf = map[block.Kind]BinOp{
	block.Add:        OpAdd,
	block.Subtract:   OpSub,
	block.Multiply:   OpMul,
	block.Divide:     OpDiv,
	block.Modulo:     OpMod,
	block.Greater:    OpGt,
	block.Less:       OpLt,
	block.Equal:      OpEq,
	block.LogicalAnd: OpAnd,
	block.LogicalOr:  OpOr,
}

var queryOf = map[block.Kind]QueryKind{
	block.XPosition:     QueryX,
	block.YPosition:     QueryY,
	block.Direction:     QueryDirection,
	block.SizeValue:     QuerySize,
	block.CostumeNumber: QueryCostume,
	block.TimerValue:    QueryTimer,
}

// expr compiles a reporter block filling a value slot.
func (b *builder) expr(n *block.Node) (Expr, *Error) {
	if op, ok := binOf[n.Type]; ok {
		left, err := b.slotExpr(n, "a")
		if err != nil {
			return nil, err
		}
		right, err := b.slotExpr(n, "b")
		if err != nil {
			return nil, err
		}
		return Binary{Op: op, Left: left, Right: right}, nil
	}
	if q, ok := queryOf[n.Type]; ok {
		return Query{Kind: q}, nil
	}

	switch n.Type {
	case block.NumberLiteral:
		return NumberLit{Value: n.FieldNumber("value", 0)}, nil
	case block.StringLiteral:
		return StringLit{Value: n.FieldString("value", "")}, nil
	case block.VariableValue:
		return VarRef{Name: n.FieldString("name", "")}, nil
	case block.LogicalNot:
		x, err := b.slotExpr(n, "a")
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	case block.Random:
		from, err := b.slotExpr(n, "from")
		if err != nil {
			return nil, err
		}
		to, err := b.slotExpr(n, "to")
		if err != nil {
			return nil, err
		}
		return Query{Kind: QueryRandom, Args: []Expr{from, to}}, nil
	case block.KeyDown:
		return Query{Kind: QueryKeyDown, Key: n.FieldString("key", "SPACE")}, nil
	case block.TouchingObject:
		return Query{Kind: QueryTouching, Target: n.FieldString("target", "")}, nil
	}

	if !n.Type.Known() {
		return nil, errAt(n, "unknown block kind")
	}
	return nil, errAt(n, "block kind is not a reporter")
}
