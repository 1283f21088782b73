package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// ConditionalParams configures a Conditional node: Expression is an
// expr-lang boolean expression evaluated with "item" and "input" bound to
// the node's input value (matching the convention the teacher's
// ExprEngine.buildEnvironment establishes). Then/Else are inner workflow
// templates, each with exactly one input edge keyed "input" and one
// output edge keyed "output"; whichever branch the expression selects is
// spliced in, the other is discarded.
type ConditionalParams struct {
	Expression    string      `json:"expression"`
	InputVariant  string      `json:"input_variant"`
	OutputVariant string      `json:"output_variant"`
	Then          workflowDoc `json:"then"`
	Else          workflowDoc `json:"else"`
}

// ConditionalExecutor routes execution to one of two inner workflows
// based on an expr-lang boolean expression, grounded on the teacher's
// expr_adapter.go calling convention (expr.Compile with expr.AsBool, then
// expr.Run) but expressed as dynamic expansion rather than an in-process
// branch, consistent with how this engine models ForEach.
type ConditionalExecutor struct{}

func decodeConditionalParams(node flow.Node) (ConditionalParams, value.Variant, value.Variant, error) {
	var p ConditionalParams
	if err := json.Unmarshal(node.Params, &p); err != nil {
		return p, nil, nil, fmt.Errorf("conditional node %s: invalid params: %w", node.ID, err)
	}
	inputVariant, err := variantByName(p.InputVariant)
	if err != nil {
		return p, nil, nil, err
	}
	outputVariant, err := variantByName(p.OutputVariant)
	if err != nil {
		return p, nil, nil, err
	}
	for _, branch := range []workflowDoc{p.Then, p.Else} {
		if findTemplateInputEdge(branch, "input") == nil {
			return p, nil, nil, fmt.Errorf("conditional node %s: branch has no input edge keyed %q", node.ID, "input")
		}
		if findTemplateOutputEdge(branch, "output") == nil {
			return p, nil, nil, fmt.Errorf("conditional node %s: branch has no output edge keyed %q", node.ID, "output")
		}
	}
	return p, inputVariant, outputVariant, nil
}

func (e *ConditionalExecutor) Validate(node flow.Node) error {
	_, _, _, err := decodeConditionalParams(node)
	return err
}

func (e *ConditionalExecutor) InputType(node flow.Node) (*record.Type, error) {
	_, inputVariant, _, err := decodeConditionalParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("ConditionalInput", []record.Field{
		{Name: "item", Variant: inputVariant, Required: true},
	}), nil
}

func (e *ConditionalExecutor) OutputType(node flow.Node) (*record.Type, error) {
	_, _, outputVariant, err := decodeConditionalParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("ConditionalOutput", []record.Field{
		{Name: "result", Variant: outputVariant, Required: true},
	}), nil
}

func (e *ConditionalExecutor) Execute(_ runctx.Context, node flow.Node, input record.Record) (flow.Outcome, error) {
	p, _, _, err := decodeConditionalParams(node)
	if err != nil {
		return flow.Outcome{}, err
	}

	itemVal, _ := input.Get("item")
	itemDoc, err := value.ToJSON(itemVal)
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("conditional node %s: %w", node.ID, err)
	}

	env := map[string]any{"item": itemDoc, "input": itemDoc}
	program, err := expr.Compile(p.Expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("conditional node %s: compiling expression: %w", node.ID, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("conditional node %s: evaluating expression: %w", node.ID, err)
	}
	taken, ok := output.(bool)
	if !ok {
		return flow.Outcome{}, fmt.Errorf("conditional node %s: expression did not return a boolean", node.ID)
	}

	branch := p.Else
	if taken {
		branch = p.Then
	}
	templateInput := findTemplateInputEdge(branch, "input")
	templateOutput := findTemplateOutputEdge(branch, "output")

	literalRaw, err := literalParams(p.InputVariant, itemVal)
	if err != nil {
		return flow.Outcome{}, fmt.Errorf("conditional node %s: %w", node.ID, err)
	}

	const prefix = "branch__"
	nodes := []flow.Node{{Type: "internal_literal", ID: prefix + "literal", Params: literalRaw}}
	for _, tn := range branch.Nodes {
		nodes = append(nodes, flow.Node{Type: tn.Type, ID: prefix + tn.ID, Params: tn.Params})
	}

	var edges []flow.Edge
	for _, te := range branch.Edges {
		edges = append(edges, flow.Edge{
			SourceID: prefix + te.SourceID, SourceKey: te.SourceKey,
			TargetID: prefix + te.TargetID, TargetKey: te.TargetKey,
		})
	}
	edges = append(edges, flow.Edge{
		SourceID: prefix + "literal", SourceKey: "value",
		TargetID: prefix + templateInput.TargetID, TargetKey: templateInput.TargetKey,
	})

	sub := flow.New(nodes, edges, nil, []flow.OutputEdge{
		{SourceID: prefix + templateOutput.SourceID, SourceKey: templateOutput.SourceKey, OutputKey: "result"},
	})
	return flow.Outcome{Expansion: sub}, nil
}
