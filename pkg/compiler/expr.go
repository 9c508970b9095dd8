package compiler

// Expr is a compiled reporter tree, evaluated structurally by the engine.
// Carrying literals as values rather than source text means a negative
// number can never be re-parsed as a subtraction when inlined.
type Expr interface{ isExpr() }

// NumberLit is a numeric literal.
type NumberLit struct{ Value float64 }

// StringLit is a string literal.
type StringLit struct{ Value string }

// BoolLit is a boolean literal, used for slot defaults.
type BoolLit struct{ Value bool }

// VarRef reads a variable through the scope chain at evaluation time.
type VarRef struct{ Name string }

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGt
	OpLt
	OpEq
	OpAnd
	OpOr
)

// Binary applies Op to Left and Right, evaluated in that order.
type Binary struct {
	Op          BinOp
	Left, Right Expr
}

// Not negates its operand.
type Not struct{ X Expr }

// QueryKind identifies a sensing reporter resolved against the running
// object's context at evaluation time.
type QueryKind int

const (
	QueryX QueryKind = iota
	QueryY
	QueryDirection
	QuerySize
	QueryCostume
	QueryTimer
	QueryRandom
	QueryKeyDown
	QueryTouching
)

// Query is a sensing reporter. Key names the key for QueryKeyDown, Target
// the object type for QueryTouching, Args the bounds for QueryRandom.
type Query struct {
	Kind   QueryKind
	Key    string
	Target string
	Args   []Expr
}

func (NumberLit) isExpr() {}
func (StringLit) isExpr() {}
func (BoolLit) isExpr()   {}
func (VarRef) isExpr()    {}
func (Binary) isExpr()    {}
func (Not) isExpr()       {}
func (Query) isExpr()     {}
