package engine

import (
	"math"
	"strconv"

	"github.com/zurustar/blockstage/pkg/compiler"
)

// eval evaluates a compiled expression against the running task's context.
// Evaluation is total: type mismatches coerce to safe zero values and a
// query against a vanished target reports false/zero, so no authored
// expression can crash the runtime.
func (e *Engine) eval(t *Task, x compiler.Expr) any {
	switch v := x.(type) {
	case compiler.NumberLit:
		return v.Value
	case compiler.StringLit:
		return v.Value
	case compiler.BoolLit:
		return v.Value

	case compiler.VarRef:
		if val, ok := t.ctx.vars.Get(v.Name); ok {
			return val
		}
		return float64(0)

	case compiler.Binary:
		return e.evalBinary(t, v)

	case compiler.Not:
		return !toBool(e.eval(t, v.X))

	case compiler.Query:
		return e.evalQuery(t, v)

	default:
		e.log.Error("unknown expression", "expr", x)
		return float64(0)
	}
}

func (e *Engine) evalBinary(t *Task, v compiler.Binary) any {
	// Left before right, matching authored slot order.
	left := e.eval(t, v.Left)
	right := e.eval(t, v.Right)

	switch v.Op {
	case compiler.OpAdd:
		return toNumber(left) + toNumber(right)
	case compiler.OpSub:
		return toNumber(left) - toNumber(right)
	case compiler.OpMul:
		return toNumber(left) * toNumber(right)
	case compiler.OpDiv:
		r := toNumber(right)
		if r == 0 {
			return float64(0)
		}
		return toNumber(left) / r
	case compiler.OpMod:
		r := toNumber(right)
		if r == 0 {
			return float64(0)
		}
		return math.Mod(toNumber(left), r)
	case compiler.OpGt:
		return toNumber(left) > toNumber(right)
	case compiler.OpLt:
		return toNumber(left) < toNumber(right)
	case compiler.OpEq:
		return valuesEqual(left, right)
	case compiler.OpAnd:
		return toBool(left) && toBool(right)
	case compiler.OpOr:
		return toBool(left) || toBool(right)
	default:
		e.log.Error("unknown binary operator", "op", v.Op)
		return float64(0)
	}
}

func (e *Engine) evalQuery(t *Task, q compiler.Query) any {
	ctx := t.ctx
	switch q.Kind {
	case compiler.QueryX:
		return ctx.X
	case compiler.QueryY:
		return ctx.Y
	case compiler.QueryDirection:
		return ctx.Direction
	case compiler.QuerySize:
		return ctx.Size
	case compiler.QueryCostume:
		return float64(ctx.Costume + 1)
	case compiler.QueryTimer:
		return float64(e.tick) / float64(e.tps)
	case compiler.QueryRandom:
		from := toNumber(e.eval(t, q.Args[0]))
		to := toNumber(e.eval(t, q.Args[1]))
		return e.randomBetween(from, to)
	case compiler.QueryKeyDown:
		if e.input == nil {
			return false
		}
		return e.input.KeyDown(q.Key)
	case compiler.QueryTouching:
		return e.overlapAny(ctx, q.Target) != nil
	default:
		e.log.Error("unknown query", "kind", q.Kind)
		return float64(0)
	}
}

// evalBool evaluates a suspended predicate during the wake pass.
func (e *Engine) evalBool(t *Task, x compiler.Expr) bool {
	return toBool(e.eval(t, x))
}

// randomBetween picks uniformly in [from, to]. Integral bounds yield an
// integral result, fractional bounds a continuous one.
func (e *Engine) randomBetween(from, to float64) float64 {
	if from > to {
		from, to = to, from
	}
	if from == math.Trunc(from) && to == math.Trunc(to) {
		span := int64(to-from) + 1
		return from + float64(e.rng.Int64N(span))
	}
	return from + e.rng.Float64()*(to-from)
}

// toNumber coerces a runtime value to a float64. Strings parse leniently;
// anything unparseable is 0.
func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toBool coerces a runtime value to a bool. Zero, "" and "false" are false.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b != "" && b != "false" && b != "0"
	default:
		return false
	}
}

// toString coerces a runtime value to a string. Whole numbers print
// without a decimal point.
func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == math.Trunc(s) && !math.IsInf(s, 0) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// valuesEqual compares with numeric coercion when either side is numeric,
// string comparison otherwise.
func valuesEqual(a, b any) bool {
	_, aNum := a.(float64)
	_, bNum := b.(float64)
	if aNum || bNum {
		return toNumber(a) == toNumber(b)
	}
	if _, ok := a.(bool); ok {
		return toBool(a) == toBool(b)
	}
	if _, ok := b.(bool); ok {
		return toBool(a) == toBool(b)
	}
	return toString(a) == toString(b)
}
