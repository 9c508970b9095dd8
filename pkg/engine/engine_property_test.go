package engine

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/blockstage/pkg/block"
	"github.com/zurustar/blockstage/pkg/compiler"
)

// Property: a counted loop runs its body exactly max(N, 0) times,
// regardless of N, and leaves no residual scheduling entry.
func TestPropertyRepeatCount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("repeat(N) increments a counter exactly max(N,0) times", prop.ForAll(
		func(n int) bool {
			loop := withValues(bn(block.Repeat), map[string]*block.Node{
				"times": numLit(float64(n)),
			})
			withBody(loop, "body", changeVar("count", numLit(1)))
			script := link(bn(block.WhenGameStart), loop)

			eng := New(WithHeadless(true), WithSeed(1))
			res := compiler.New().Compile("obj", &block.Program{Scripts: []*block.Node{script}})
			if len(res.Errors) > 0 {
				return false
			}
			eng.RegisterType("obj", "Obj", nil, nil, res.Handlers)
			if _, err := eng.Place("obj", 0, 0); err != nil {
				return false
			}
			eng.Start()

			want := float64(max(n, 0))
			got, _ := eng.Globals().Get("count")
			return toNumber(got) == want && len(eng.tasks) == 0
		},
		gen.IntRange(-10, 60),
	))

	properties.TestingRun(t)
}

// Property: the random reporter stays within its bounds, in either
// argument order, and integral bounds produce integral results.
func TestPropertyRandomBetween(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	eng := New(WithHeadless(true), WithSeed(99))

	properties.Property("result lies in [min(a,b), max(a,b)]", prop.ForAll(
		func(a, b float64) bool {
			got := eng.randomBetween(a, b)
			lo, hi := math.Min(a, b), math.Max(a, b)
			return got >= lo && got <= hi
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))

	properties.Property("integral bounds give integral results", prop.ForAll(
		func(a, b int) bool {
			got := eng.randomBetween(float64(a), float64(b))
			return got == math.Trunc(got)
		},
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}

// Property: value coercion is total and stable. Numbers survive a
// round-trip through their string form, and toNumber never panics on any
// runtime value shape.
func TestPropertyValueCoercion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("number -> string -> number round-trips", prop.ForAll(
		func(f float64) bool {
			return toNumber(toString(f)) == f
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("equality coerces numerically when either side is a number", prop.ForAll(
		func(f float64) bool {
			return valuesEqual(f, toString(f)) && valuesEqual(toString(f), f)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

// Property: writes through a child scope never create bindings in the
// child when the parent already defines the name.
func TestPropertyScopeWriteTarget(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Set targets the defining scope", prop.ForAll(
		func(name string, initial, updated int) bool {
			parent := NewScope(nil)
			child := NewScope(parent)
			parent.Define(name, initial)

			child.Set(name, updated)
			if _, ok := child.vars[name]; ok {
				return false
			}
			v, _ := parent.Get(name)
			return v == updated
		},
		gen.Identifier(),
		gen.Int(),
		gen.Int(),
	))

	properties.TestingRun(t)
}
