package compiler

// Op is the instruction set of a compiled handler. Handlers are flat,
// PC-addressable instruction lists so the scheduler can suspend inside any
// nesting depth and resume at the exact instruction.
type Op int

const (
	// OpCommand invokes one object command (motion, looks, physics, sound)
	// with Args evaluated left to right.
	OpCommand Op = iota

	// OpSetVar writes Args[0] to the variable Name.
	OpSetVar

	// OpChangeVar adds Args[0] to the variable Name.
	OpChangeVar

	// OpJump continues at Target.
	OpJump

	// OpJumpIf continues at Target when Args[0] is true.
	OpJumpIf

	// OpJumpUnless continues at Target when Args[0] is false.
	OpJumpUnless

	// OpLoopBegin evaluates Args[0] once, pushes max(N,0) as a loop
	// counter, and jumps to Target when the counter starts at zero.
	OpLoopBegin

	// OpLoopEnd decrements the innermost loop counter and jumps back to
	// Target while it stays positive; otherwise pops it.
	OpLoopEnd

	// OpYield suspends until the next tick and resumes at Target.
	OpYield

	// OpWait suspends for Args[0] seconds of engine time, resuming on the
	// first tick boundary at or after the deadline.
	OpWait

	// OpWaitUntil suspends until Args[0] evaluates true, re-checked once
	// per tick.
	OpWaitUntil

	// OpBroadcast fires the channel named by Args[0] without suspending.
	OpBroadcast

	// OpBroadcastWait fires the channel named by Args[0] and suspends
	// until the snapshot of triggered handlers completes.
	OpBroadcastWait

	// OpGlide suspends while the object glides to (Args[1], Args[2]) over
	// Args[0] seconds.
	OpGlide

	// OpCreateClone spawns a clone of the object named by Name, or of the
	// running object when Name is "myself".
	OpCreateClone

	// OpDeleteClone deletes the running clone; a no-op for originals.
	OpDeleteClone

	// OpStop stops the current invocation (Name "script") or the whole
	// stage (Name "all").
	OpStop
)

// Command identifies one object command carried by OpCommand.
type Command int

const (
	CmdGoToXY Command = iota
	CmdSetX
	CmdSetY
	CmdChangeX
	CmdChangeY
	CmdPointDirection
	CmdMoveSteps
	CmdShow
	CmdHide
	CmdSwitchCostume
	CmdNextCostume
	CmdSetSize
	CmdEnablePhysics
	CmdDisablePhysics
	CmdSetVelocity
	CmdApplyImpulse
	CmdSetGravity
	CmdPlaySound
	CmdPlayMusic
	CmdStopMusic
)

var commandNames = map[Command]string{
	CmdGoToXY:         "goToXY",
	CmdSetX:           "setX",
	CmdSetY:           "setY",
	CmdChangeX:        "changeX",
	CmdChangeY:        "changeY",
	CmdPointDirection: "pointDirection",
	CmdMoveSteps:      "moveSteps",
	CmdShow:           "show",
	CmdHide:           "hide",
	CmdSwitchCostume:  "switchCostume",
	CmdNextCostume:    "nextCostume",
	CmdSetSize:        "setSize",
	CmdEnablePhysics:  "enablePhysics",
	CmdDisablePhysics: "disablePhysics",
	CmdSetVelocity:    "setVelocity",
	CmdApplyImpulse:   "applyImpulse",
	CmdSetGravity:     "setGravity",
	CmdPlaySound:      "playSound",
	CmdPlayMusic:      "playMusic",
	CmdStopMusic:      "stopMusic",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknownCommand"
}

// Instr is one compiled instruction.
type Instr struct {
	Op     Op
	Cmd    Command // OpCommand only
	Name   string  // variable name, clone target, or stop scope
	Args   []Expr  // evaluated left to right
	Target int     // jump/resume PC
}

// EventKind classifies the event block rooting a handler.
type EventKind string

const (
	EventGameStart EventKind = "gameStart"
	EventKey       EventKind = "keyPressed"
	EventClicked   EventKind = "clicked"
	EventForever   EventKind = "forever"
	EventReceive   EventKind = "receive"
	EventTouching  EventKind = "touching"
)

// Handler is one compiled procedure plus its trigger metadata. Handlers are
// shared read-only between every live object of the owning type; all
// mutable execution state lives in the scheduler's coroutines.
type Handler struct {
	TypeID string
	Event  EventKind
	Param  string // key name, channel, or touch target; "" otherwise
	Root   string // id of the event node, for diagnostics
	Code   []Instr
}
