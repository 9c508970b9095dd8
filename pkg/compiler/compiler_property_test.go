package compiler

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/blockstage/pkg/block"
)

// statementKinds are the block kinds usable inside a script chain.
func statementKinds() []block.Kind {
	var kinds []block.Kind
	for k, shape := range block.Shapes {
		if shape.Event || shape.Reporter {
			continue
		}
		if k == block.SetVariable || k == block.ChangeVariable || k == block.Stop {
			// These need valid fields; covered by the table tests.
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}

// Property: any statement block with every slot left empty compiles via
// its safe defaults. Partially-authored programs must stay runnable.
func TestPropertyEmptyStatementBlocksCompile(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	kinds := statementKinds()
	properties.Property("bare statement blocks compile with defaults", prop.ForAll(
		func(idx int) bool {
			script := link(bn(block.WhenGameStart), bn(kinds[idx]))
			res := New().Compile("obj", &block.Program{Scripts: []*block.Node{script}})
			return len(res.Errors) == 0 && len(res.Handlers) == 1
		},
		gen.IntRange(0, len(kinds)-1),
	))

	properties.TestingRun(t)
}

// Property: compilation is deterministic. The same tree always produces
// the same instruction stream, instruction for instruction.
func TestPropertyCompilationDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	kinds := statementKinds()
	properties.Property("same tree, same code", prop.ForAll(
		func(picks []int, times float64) bool {
			build := func() *block.Node {
				loop := withValues(bn(block.Repeat), map[string]*block.Node{
					"times": numLit(times),
				})
				var body []*block.Node
				for _, p := range picks {
					body = append(body, bn(kinds[p%len(kinds)]))
				}
				if len(body) > 0 {
					withBody(loop, "body", link(body...))
				}
				return link(bn(block.WhenGameStart), loop)
			}

			// Two structurally identical trees; node ids differ, code must not.
			first := New().Compile("obj", &block.Program{Scripts: []*block.Node{build()}})
			second := New().Compile("obj", &block.Program{Scripts: []*block.Node{build()}})
			if len(first.Errors) > 0 || len(second.Errors) > 0 {
				return false
			}
			return reflect.DeepEqual(first.Handlers[0].Code, second.Handlers[0].Code)
		},
		gen.SliceOfN(5, gen.IntRange(0, 1000)),
		gen.Float64Range(0, 10),
	))

	properties.TestingRun(t)
}

// Property: arithmetic reporter trees of any nesting compile to expression
// trees mirroring their slot structure.
func TestPropertyNestedArithmeticCompiles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	binKinds := []block.Kind{
		block.Add, block.Subtract, block.Multiply,
		block.Divide, block.Modulo, block.Greater,
		block.Less, block.Equal,
	}

	properties.Property("nested binary reporters compile without error", prop.ForAll(
		func(ops []int, leaf float64) bool {
			expr := numLit(leaf)
			for _, op := range ops {
				expr = withValues(bn(binKinds[op%len(binKinds)]), map[string]*block.Node{
					"a": expr, "b": numLit(leaf),
				})
			}
			setter := withFields(bn(block.SetVariable), map[string]any{"name": "v"})
			withValues(setter, map[string]*block.Node{"value": expr})

			res := New().Compile("obj", &block.Program{
				Scripts: []*block.Node{link(bn(block.WhenGameStart), setter)},
			})
			if len(res.Errors) != 0 {
				return false
			}

			// Depth of the compiled expression matches the authored nesting.
			depth := 0
			var x Expr = res.Handlers[0].Code[0].Args[0]
			for {
				b, ok := x.(Binary)
				if !ok {
					break
				}
				depth++
				x = b.Left
			}
			return depth == len(ops)
		},
		gen.SliceOfN(4, gen.IntRange(0, 1000)),
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}
