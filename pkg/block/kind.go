package block

// Kind identifies a block type. The set of kinds is closed: the compiler
// switches over it exhaustively and rejects anything outside it.
type Kind string

// Event blocks. Each roots one top-level script and carries its trigger
// parameter as a field.
const (
	WhenGameStart  Kind = "whenGameStart"
	WhenKeyPressed Kind = "whenKeyPressed"
	WhenClicked    Kind = "whenClicked"
	WhenForever    Kind = "whenForever"
	WhenReceive    Kind = "whenReceive"
	WhenTouching   Kind = "whenTouching"
)

// Control blocks.
const (
	Repeat      Kind = "repeat"
	RepeatUntil Kind = "repeatUntil"
	WaitUntil   Kind = "waitUntil"
	Forever     Kind = "forever"
	Wait        Kind = "wait"
	IfThen      Kind = "ifThen"
	IfElse      Kind = "ifElse"
	Stop        Kind = "stop"
)

// Messaging and clone blocks.
const (
	Broadcast     Kind = "broadcast"
	BroadcastWait Kind = "broadcastWait"
	CreateClone   Kind = "createClone"
	DeleteClone   Kind = "deleteClone"
)

// Motion blocks.
const (
	GoToXY         Kind = "goToXY"
	SetX           Kind = "setX"
	SetY           Kind = "setY"
	ChangeX        Kind = "changeX"
	ChangeY        Kind = "changeY"
	GlideTo        Kind = "glideTo"
	PointDirection Kind = "pointDirection"
	MoveSteps      Kind = "moveSteps"
)

// Looks blocks.
const (
	Show          Kind = "show"
	Hide          Kind = "hide"
	SwitchCostume Kind = "switchCostume"
	NextCostume   Kind = "nextCostume"
	SetSize       Kind = "setSize"
)

// Physics blocks.
const (
	EnablePhysics  Kind = "enablePhysics"
	DisablePhysics Kind = "disablePhysics"
	SetVelocity    Kind = "setVelocity"
	ApplyImpulse   Kind = "applyImpulse"
	SetGravity     Kind = "setGravity"
)

// Sound blocks.
const (
	PlaySound Kind = "playSound"
	PlayMusic Kind = "playMusic"
	StopMusic Kind = "stopMusic"
)

// Variable blocks.
const (
	SetVariable    Kind = "setVariable"
	ChangeVariable Kind = "changeVariable"
)

// Reporter blocks. These fill value slots and compile to inline expressions.
const (
	NumberLiteral  Kind = "numberLiteral"
	StringLiteral  Kind = "stringLiteral"
	VariableValue  Kind = "variableValue"
	XPosition      Kind = "xPosition"
	YPosition      Kind = "yPosition"
	Direction      Kind = "direction"
	SizeValue      Kind = "sizeValue"
	CostumeNumber  Kind = "costumeNumber"
	TimerValue     Kind = "timerValue"
	Add            Kind = "add"
	Subtract       Kind = "subtract"
	Multiply       Kind = "multiply"
	Divide         Kind = "divide"
	Modulo         Kind = "modulo"
	Random         Kind = "random"
	Greater        Kind = "greater"
	Less           Kind = "less"
	Equal          Kind = "equal"
	LogicalAnd     Kind = "logicalAnd"
	LogicalOr      Kind = "logicalOr"
	LogicalNot     Kind = "logicalNot"
	KeyDown        Kind = "keyDown"
	TouchingObject Kind = "touchingObject"
)

// ValueSlot describes one value slot of a block kind. Default is the value
// a missing slot compiles to, so partially-filled programs stay runnable.
type ValueSlot struct {
	Name    string
	Default any
}

// Shape is the authoring schema of one block kind: which slots and fields
// are valid, in the order they are traversed and evaluated.
type Shape struct {
	Values     []ValueSlot
	Statements []string
	Fields     []string
	Event      bool
	Reporter   bool
}

// Shapes is the schema for every supported kind. Slot order here fixes the
// depth-first, left-to-right evaluation order of compiled code.
var Shapes = map[Kind]Shape{
	WhenGameStart:  {Event: true},
	WhenKeyPressed: {Event: true, Fields: []string{"key"}},
	WhenClicked:    {Event: true},
	WhenForever:    {Event: true},
	WhenReceive:    {Event: true, Fields: []string{"channel"}},
	WhenTouching:   {Event: true, Fields: []string{"target"}},

	Repeat:      {Values: []ValueSlot{{"times", 0.0}}, Statements: []string{"body"}},
	RepeatUntil: {Values: []ValueSlot{{"condition", true}}, Statements: []string{"body"}},
	WaitUntil:   {Values: []ValueSlot{{"condition", true}}},
	Forever:     {Statements: []string{"body"}},
	Wait:        {Values: []ValueSlot{{"seconds", 1.0}}},
	IfThen:      {Values: []ValueSlot{{"condition", false}}, Statements: []string{"then"}},
	IfElse:      {Values: []ValueSlot{{"condition", false}}, Statements: []string{"then", "else"}},
	Stop:        {Fields: []string{"scope"}},

	Broadcast:     {Values: []ValueSlot{{"channel", "message"}}},
	BroadcastWait: {Values: []ValueSlot{{"channel", "message"}}},
	CreateClone:   {Fields: []string{"target"}},
	DeleteClone:   {},

	GoToXY:         {Values: []ValueSlot{{"x", 0.0}, {"y", 0.0}}},
	SetX:           {Values: []ValueSlot{{"x", 0.0}}},
	SetY:           {Values: []ValueSlot{{"y", 0.0}}},
	ChangeX:        {Values: []ValueSlot{{"dx", 10.0}}},
	ChangeY:        {Values: []ValueSlot{{"dy", 10.0}}},
	GlideTo:        {Values: []ValueSlot{{"seconds", 1.0}, {"x", 0.0}, {"y", 0.0}}},
	PointDirection: {Values: []ValueSlot{{"direction", 90.0}}},
	MoveSteps:      {Values: []ValueSlot{{"steps", 10.0}}},

	Show:          {},
	Hide:          {},
	SwitchCostume: {Values: []ValueSlot{{"costume", 1.0}}},
	NextCostume:   {},
	SetSize:       {Values: []ValueSlot{{"size", 100.0}}},

	EnablePhysics:  {},
	DisablePhysics: {},
	SetVelocity:    {Values: []ValueSlot{{"vx", 0.0}, {"vy", 0.0}}},
	ApplyImpulse:   {Values: []ValueSlot{{"ix", 0.0}, {"iy", 0.0}}},
	SetGravity:     {Values: []ValueSlot{{"gravity", 9.8}}},

	PlaySound: {Values: []ValueSlot{{"sound", ""}}},
	PlayMusic: {Values: []ValueSlot{{"music", ""}}},
	StopMusic: {},

	SetVariable:    {Fields: []string{"name"}, Values: []ValueSlot{{"value", 0.0}}},
	ChangeVariable: {Fields: []string{"name"}, Values: []ValueSlot{{"delta", 1.0}}},

	NumberLiteral: {Reporter: true, Fields: []string{"value"}},
	StringLiteral: {Reporter: true, Fields: []string{"value"}},
	VariableValue: {Reporter: true, Fields: []string{"name"}},
	XPosition:     {Reporter: true},
	YPosition:     {Reporter: true},
	Direction:     {Reporter: true},
	SizeValue:     {Reporter: true},
	CostumeNumber: {Reporter: true},
	TimerValue:    {Reporter: true},

	Add:      {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	Subtract: {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	Multiply: {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	Divide:   {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 1.0}}},
	Modulo:   {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 1.0}}},
	Random:   {Reporter: true, Values: []ValueSlot{{"from", 1.0}, {"to", 10.0}}},

	Greater:    {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	Less:       {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	Equal:      {Reporter: true, Values: []ValueSlot{{"a", 0.0}, {"b", 0.0}}},
	LogicalAnd: {Reporter: true, Values: []ValueSlot{{"a", false}, {"b", false}}},
	LogicalOr:  {Reporter: true, Values: []ValueSlot{{"a", false}, {"b", false}}},
	LogicalNot: {Reporter: true, Values: []ValueSlot{{"a", false}}},

	KeyDown:        {Reporter: true, Fields: []string{"key"}},
	TouchingObject: {Reporter: true, Fields: []string{"target"}},
}

// Known reports whether the kind is one of the supported block kinds.
func (k Kind) Known() bool {
	_, ok := Shapes[k]
	return ok
}

// IsEvent reports whether the kind roots a top-level script.
func (k Kind) IsEvent() bool {
	return Shapes[k].Event
}

// IsReporter reports whether the kind compiles to an inline expression.
func (k Kind) IsReporter() bool {
	return Shapes[k].Reporter
}

// Slot returns the schema of the named value slot.
func (k Kind) Slot(name string) (ValueSlot, bool) {
	for _, s := range Shapes[k].Values {
		if s.Name == name {
			return s, true
		}
	}
	return ValueSlot{}, false
}
