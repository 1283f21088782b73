// Package nodes is a small library of concrete flow.NodeExecutor
// implementations demonstrating the engine end to end: a constant
// source, arithmetic, unconditional failure, file append, looping via
// dynamic expansion, and expr-lang-driven branching. None of this is
// part of the engine itself — it exists to give cmd/flowmesh and the
// engine's tests something to run.
package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// ConstantParams configures a Constant node: Variant names one of
// "null", "boolean", "integer", "float", "string" and Value is the raw
// JSON literal for that variant.
type ConstantParams struct {
	Variant string          `json:"variant"`
	Value   json.RawMessage `json:"value"`
}

// ConstantExecutor always produces the same literal value, regardless of
// input — the workflow analogue of the teacher's NumberExecutor, widened
// to any primitive variant.
type ConstantExecutor struct{}

func variantByName(name string) (value.Variant, error) {
	switch name {
	case "null":
		return value.Null, nil
	case "boolean":
		return value.Boolean, nil
	case "integer":
		return value.Integer, nil
	case "float":
		return value.Float, nil
	case "string":
		return value.String, nil
	default:
		return nil, fmt.Errorf("constant node: unknown variant %q", name)
	}
}

func decodeConstantParams(node flow.Node) (ConstantParams, value.Variant, error) {
	var p ConstantParams
	if err := json.Unmarshal(node.Params, &p); err != nil {
		return p, nil, fmt.Errorf("constant node %s: invalid params: %w", node.ID, err)
	}
	variant, err := variantByName(p.Variant)
	if err != nil {
		return p, nil, err
	}
	return p, variant, nil
}

func (e *ConstantExecutor) Validate(node flow.Node) error {
	_, _, err := decodeConstantParams(node)
	return err
}

func (e *ConstantExecutor) InputType(flow.Node) (*record.Type, error) {
	return record.NewType("ConstantInput", nil), nil
}

func (e *ConstantExecutor) OutputType(node flow.Node) (*record.Type, error) {
	_, variant, err := decodeConstantParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("ConstantOutput", []record.Field{
		{Name: "value", Variant: variant, Required: true},
	}), nil
}

func (e *ConstantExecutor) Execute(_ runctx.Context, node flow.Node, _ record.Record) (flow.Outcome, error) {
	p, variant, err := decodeConstantParams(node)
	if err != nil {
		return flow.Outcome{}, err
	}
	var doc any
	if err := json.Unmarshal(p.Value, &doc); err != nil {
		return flow.Outcome{}, fmt.Errorf("constant node %s: invalid value literal: %w", node.ID, err)
	}
	v, err := value.FromJSON(doc, variant)
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("constant node %s: %w", node.ID, err)
	}
	out, err := record.NewType("ConstantOutput", []record.Field{{Name: "value", Variant: variant, Required: true}}).
		Validate(map[string]value.Value{"value": v})
	return flow.Outcome{Output: out}, err
}
