package nodes

import (
	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

var addInputType = record.NewType("AddInput", []record.Field{
	{Name: "a", Variant: value.Integer, Required: true},
	{Name: "b", Variant: value.Integer, Required: true},
})

var addOutputType = record.NewType("AddOutput", []record.Field{
	{Name: "sum", Variant: value.Integer, Required: true},
})

// AddExecutor sums two integer fields, grounded on the teacher's
// OperationExecutor but field-keyed rather than positional since records
// carry named fields, not an argument list.
type AddExecutor struct{}

func (e *AddExecutor) Validate(flow.Node) error { return nil }

func (e *AddExecutor) InputType(flow.Node) (*record.Type, error) { return addInputType, nil }

func (e *AddExecutor) OutputType(flow.Node) (*record.Type, error) { return addOutputType, nil }

func (e *AddExecutor) Execute(_ runctx.Context, _ flow.Node, input record.Record) (flow.Outcome, error) {
	a, _ := input.Get("a")
	b, _ := input.Get("b")
	av, _ := a.Int()
	bv, _ := b.Int()
	out, err := addOutputType.Validate(map[string]value.Value{"sum": value.IntegerValue(av + bv)})
	return flow.Outcome{Output: out}, err
}
