package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// workflowDoc is the JSON shape of an embedded inner workflow template:
// the same four slices flow.Workflow exposes, re-declared here so decoding
// does not have to fight flow.Workflow's derived index fields.
type workflowDoc struct {
	Nodes       []flow.Node       `json:"nodes"`
	Edges       []flow.Edge       `json:"edges"`
	InputEdges  []flow.InputEdge  `json:"input_edges"`
	OutputEdges []flow.OutputEdge `json:"output_edges"`
}

// ForEachParams configures a ForEach node: ItemTemplate is an inner
// workflow with exactly one input edge keyed "item" and exactly one
// output edge keyed "result". ItemVariant/ResultVariant name the
// primitive variant of, respectively, each input element and each
// template result (see variantByName).
type ForEachParams struct {
	ItemTemplate  workflowDoc `json:"item_template"`
	ItemVariant   string      `json:"item_variant"`
	ResultVariant string      `json:"result_variant"`
}

// ForEachExecutor runs a one-node-in, one-node-out inner workflow once
// per element of its "items" input, then collects the per-iteration
// results into "results". Each run expands into a fresh subgraph: a
// literal feed node and a namespaced copy of the template per iteration,
// plus one internal_collect node, grounded on the teacher's ForEach
// executor but implemented via dynamic expansion instead of an in-process
// loop, since this engine models iteration as graph splicing rather than
// as control flow internal to one node.
type ForEachExecutor struct{}

func decodeForEachParams(node flow.Node) (ForEachParams, value.Variant, value.Variant, error) {
	var p ForEachParams
	if err := json.Unmarshal(node.Params, &p); err != nil {
		return p, nil, nil, fmt.Errorf("foreach node %s: invalid params: %w", node.ID, err)
	}
	itemVariant, err := variantByName(p.ItemVariant)
	if err != nil {
		return p, nil, nil, err
	}
	resultVariant, err := variantByName(p.ResultVariant)
	if err != nil {
		return p, nil, nil, err
	}
	if findTemplateInputEdge(p.ItemTemplate, "item") == nil {
		return p, nil, nil, fmt.Errorf("foreach node %s: item_template has no input edge keyed %q", node.ID, "item")
	}
	if findTemplateOutputEdge(p.ItemTemplate, "result") == nil {
		return p, nil, nil, fmt.Errorf("foreach node %s: item_template has no output edge keyed %q", node.ID, "result")
	}
	return p, itemVariant, resultVariant, nil
}

func findTemplateInputEdge(doc workflowDoc, key string) *flow.InputEdge {
	for _, e := range doc.InputEdges {
		if e.InputKey == key {
			e := e
			return &e
		}
	}
	return nil
}

func findTemplateOutputEdge(doc workflowDoc, key string) *flow.OutputEdge {
	for _, e := range doc.OutputEdges {
		if e.OutputKey == key {
			e := e
			return &e
		}
	}
	return nil
}

func (e *ForEachExecutor) Validate(node flow.Node) error {
	_, _, _, err := decodeForEachParams(node)
	return err
}

func (e *ForEachExecutor) InputType(node flow.Node) (*record.Type, error) {
	_, itemVariant, _, err := decodeForEachParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("ForEachInput", []record.Field{
		{Name: "items", Variant: value.Sequence{Elem: itemVariant}, Required: true},
	}), nil
}

func (e *ForEachExecutor) OutputType(node flow.Node) (*record.Type, error) {
	_, _, resultVariant, err := decodeForEachParams(node)
	if err != nil {
		return nil, err
	}
	return record.NewType("ForEachOutput", []record.Field{
		{Name: "results", Variant: value.Sequence{Elem: resultVariant}, Required: true},
	}), nil
}

func iterPrefix(i int) string { return fmt.Sprintf("iter%d__", i) }

func literalParams(variantName string, v value.Value) (json.RawMessage, error) {
	doc, err := value.ToJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ConstantParams{Variant: variantName, Value: mustMarshal(doc)})
}

func mustMarshal(doc any) json.RawMessage {
	raw, _ := json.Marshal(doc)
	return raw
}

func (e *ForEachExecutor) Execute(_ runctx.Context, node flow.Node, input record.Record) (flow.Outcome, error) {
	p, _, _, err := decodeForEachParams(node)
	if err != nil {
		return flow.Outcome{}, err
	}

	itemsVal, _ := input.Get("items")
	items, _ := itemsVal.Items()
	n := len(items)

	templateInput := findTemplateInputEdge(p.ItemTemplate, "item")
	templateOutput := findTemplateOutputEdge(p.ItemTemplate, "result")

	var nodes []flow.Node
	var edges []flow.Edge

	for i, elem := range items {
		prefix := iterPrefix(i)

		literalParamsRaw, err := literalParams(p.ItemVariant, elem)
		if err != nil {
			return flow.Outcome{}, fmt.Errorf("foreach node %s: iteration %d: %w", node.ID, i, err)
		}
		literalID := prefix + "literal"
		nodes = append(nodes, flow.Node{Type: "internal_literal", ID: literalID, Params: literalParamsRaw})

		for _, tn := range p.ItemTemplate.Nodes {
			nodes = append(nodes, flow.Node{Type: tn.Type, ID: prefix + tn.ID, Params: tn.Params})
		}
		for _, te := range p.ItemTemplate.Edges {
			edges = append(edges, flow.Edge{
				SourceID: prefix + te.SourceID, SourceKey: te.SourceKey,
				TargetID: prefix + te.TargetID, TargetKey: te.TargetKey,
			})
		}

		edges = append(edges, flow.Edge{
			SourceID: literalID, SourceKey: "value",
			TargetID: prefix + templateInput.TargetID, TargetKey: templateInput.TargetKey,
		})
		edges = append(edges, flow.Edge{
			SourceID: prefix + templateOutput.SourceID, SourceKey: templateOutput.SourceKey,
			TargetID: "collect", TargetKey: collectItemKey(i),
		})
	}

	collectParamsRaw, err := json.Marshal(CollectParams{Count: n, Variant: p.ResultVariant})
	if err != nil {
		return flow.Outcome{}, err
	}
	nodes = append(nodes, flow.Node{Type: "internal_collect", ID: "collect", Params: collectParamsRaw})

	sub := flow.New(nodes, edges, nil, []flow.OutputEdge{
		{SourceID: "collect", SourceKey: "out", OutputKey: "results"},
	})
	return flow.Outcome{Expansion: sub}, nil
}
