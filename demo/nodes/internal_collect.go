package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// CollectParams configures an internal_collect node, which ForEach's
// expansion generates: it gathers Count inputs of a common Variant, in
// iteration order, into one Sequence.
type CollectParams struct {
	Count   int    `json:"count"`
	Variant string `json:"variant"`
}

// CollectExecutor aggregates the per-iteration results of a ForEach
// expansion into a single sequence. It is never addressed directly from
// a user-authored workflow; ForEachExecutor.Execute is the only code that
// constructs nodes of this type.
type CollectExecutor struct{}

func decodeCollectParams(node flow.Node) (CollectParams, value.Variant, error) {
	var p CollectParams
	if err := json.Unmarshal(node.Params, &p); err != nil {
		return p, nil, fmt.Errorf("internal_collect node %s: invalid params: %w", node.ID, err)
	}
	variant, err := variantByName(p.Variant)
	if err != nil {
		return p, nil, err
	}
	return p, variant, nil
}

func collectItemKey(i int) string { return fmt.Sprintf("item%d", i) }

func (e *CollectExecutor) Validate(node flow.Node) error {
	_, _, err := decodeCollectParams(node)
	return err
}

func (e *CollectExecutor) InputType(node flow.Node) (*record.Type, error) {
	p, variant, err := decodeCollectParams(node)
	if err != nil {
		return nil, err
	}
	fields := make([]record.Field, p.Count)
	for i := 0; i < p.Count; i++ {
		fields[i] = record.Field{Name: collectItemKey(i), Variant: variant, Required: true}
	}
	return record.NewType("CollectInput", fields), nil
}

func (e *CollectExecutor) OutputType(node flow.Node) (*record.Type, error) {
	_, variant, err := decodeCollectParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("CollectOutput", []record.Field{
		{Name: "out", Variant: value.Sequence{Elem: variant}, Required: true},
	}), nil
}

func (e *CollectExecutor) Execute(_ runctx.Context, node flow.Node, input record.Record) (flow.Outcome, error) {
	p, variant, err := decodeCollectParams(node)
	if err != nil {
		return flow.Outcome{}, err
	}
	items := make([]value.Value, p.Count)
	for i := 0; i < p.Count; i++ {
		v, ok := input.Get(collectItemKey(i))
		if !ok {
			return flow.Outcome{}, fmt.Errorf("internal_collect node %s: missing field %q", node.ID, collectItemKey(i))
		}
		items[i] = v
	}
	outType, err := e.OutputType(node)
	if err != nil {
		return flow.Outcome{}, err
	}
	out, err := outType.Validate(map[string]value.Value{"out": value.SequenceValue(variant, items)})
	return flow.Outcome{Output: out}, err
}
