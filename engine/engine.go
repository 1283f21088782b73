// Package engine implements the execution algorithm: single-threaded
// cooperative topological scheduling of node invocations, the
// context-hook protocol, memoization short-circuit, dynamic subgraph
// expansion, and error aggregation.
package engine

import (
	"fmt"
	"sort"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/graph"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
	"github.com/flowmesh/engine/werrors"
)

// Run drives one workflow execution to completion against ctx, per the
// per-run protocol: on_workflow_start may short-circuit the whole run;
// otherwise nodes are scheduled from the ready set one at a time, each
// going through on_node_start / cast / validate / run / on_node_finish
// (or on_node_error), until the ready set is empty. It always returns a
// (errors, output) tuple, never raising to the caller except for fatal
// construction failures handled before Run is called.
func Run(ctx runctx.Context, registry *flow.Registry, w *flow.Workflow, inputType, outputType *record.Type, input map[string]value.Value) (*werrors.WorkflowErrors, map[string]value.Value) {
	wv := runctx.WorkflowView{ID: ctx.RunID()}
	rawInputDoc := toAnyMap(input)

	if shortOutput, shortCircuit := ctx.OnWorkflowStart(wv, rawInputDoc); shortCircuit {
		return werrors.NewWorkflowErrors(), fromAnyMap(shortOutput)
	}

	nodeOutputs := make(map[string]map[string]value.Value)
	errs := werrors.NewWorkflowErrors()
	current := w

	for {
		ready := graph.ReadySet(current, input, nodeOutputs, nil)
		if len(ready) == 0 {
			break
		}
		id := firstKeySorted(ready)
		rawInput := ready[id]
		node := current.NodesByID[id]

		output, expansion, err := runOneNode(ctx, registry, node, rawInput)

		switch {
		case expansion != nil:
			spliced, expErr := graph.Expand(current, id, expansion, registry)
			if expErr == nil {
				expErr = spliced.Validate(registry, inputType, outputType)
			}
			if expErr != nil {
				errs.AddWorkflow(werrors.NewNodeExpansionError(id, expErr))
				nodeOutputs[id] = map[string]value.Value{}
				continue
			}
			current = spliced

		case err != nil:
			nv := runctx.NodeView{ID: id, Type: node.Type}
			absorbed, absorbedOK := ctx.OnNodeError(nv, record.Record{}, err)
			if absorbedOK {
				nodeOutputs[id] = absorbed.Fields
			} else {
				errs.AddNode(id, werrors.NewNodeError(id, err))
				nodeOutputs[id] = map[string]value.Value{}
			}

		default:
			nodeOutputs[id] = output.Fields
		}
	}

	if errs.Any() {
		partial, _ := graph.ProjectOutput(current, nodeOutputs, true)
		ctx.OnWorkflowError(wv, rawInputDoc, errs.WorkflowErrors, toAnyMap(partial))
		return errs, partial
	}

	full, projErr := graph.ProjectOutput(current, nodeOutputs, false)
	if projErr != nil {
		errs.AddWorkflow(projErr)
		return errs, full
	}
	ctx.OnWorkflowFinish(wv, rawInputDoc, toAnyMap(full))
	return errs, full
}

// runOneNode carries one ready node through on_node_start, concurrent
// per-field casting, input validation, the executor's Execute, and
// on_node_finish. Its three possible outcomes are a completed output
// record, a subgraph (expansion request), or an error — never more than
// one.
func runOneNode(ctx runctx.Context, registry *flow.Registry, node flow.Node, rawInput map[string]value.Value) (record.Record, *flow.Workflow, error) {
	nv := runctx.NodeView{ID: node.ID, Type: node.Type}

	executor, ok := registry.Get(node.Type)
	if !ok {
		return record.Record{}, nil, fmt.Errorf("engine: node %s: type %q is not registered", node.ID, node.Type)
	}

	inType, err := executor.InputType(node)
	if err != nil {
		return record.Record{}, nil, fmt.Errorf("engine: node %s: %w", node.ID, err)
	}

	rawRecord := looseRecord(inType, rawInput)
	if skipped, skip := ctx.OnNodeStart(nv, rawRecord); skip {
		return skipped, nil, nil
	}

	castedFields, err := castFieldsConcurrently(ctx, inType, rawInput)
	if err != nil {
		return record.Record{}, nil, werrors.WrapUserError(err, "node %s: input cast failed", node.ID)
	}

	inputRecord, err := inType.Validate(castedFields)
	if err != nil {
		return record.Record{}, nil, werrors.WrapUserError(err, "node %s: invalid input", node.ID)
	}

	outcome, err := executor.Execute(ctx, node, inputRecord)
	if err != nil {
		return record.Record{}, nil, err
	}
	if outcome.Expansion != nil {
		return record.Record{}, outcome.Expansion, nil
	}

	finished := ctx.OnNodeFinish(nv, inputRecord, outcome.Output)
	return finished, nil, nil
}

// looseRecord wraps a raw, not-yet-cast field map as a Record for hook
// visibility only: it is never validated against t, since its field
// variants may not yet match t's declared variants.
func looseRecord(t *record.Type, raw map[string]value.Value) record.Record {
	fields := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	return record.Record{Type: t, Fields: fields}
}

func firstKeySorted(m map[string]map[string]value.Value) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func toAnyMap(m map[string]value.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		doc, err := value.ToJSON(v)
		if err != nil {
			doc = fmt.Sprintf("<unencodable: %v>", err)
		}
		out[k] = doc
	}
	return out
}

// fromAnyMap is used only for the on_workflow_start short-circuit path,
// where a context that already knows the answer hands back plain JSON
// documents rather than typed Values. Memoized outputs are therefore
// limited to primitive/array/object shapes; a context needing richer
// short-circuit outputs should encode them as JSON files instead.
func fromAnyMap(m map[string]any) map[string]value.Value {
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = anyToValue(v)
	}
	return out
}

func anyToValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.NullValue()
	case bool:
		return value.BooleanValue(t)
	case int64:
		return value.IntegerValue(t)
	case float64:
		return value.FloatValue(t)
	case string:
		return value.StringValue(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = anyToValue(e)
		}
		return value.SequenceValue(value.String, items)
	case map[string]any:
		items := make(map[string]value.Value, len(t))
		for k, e := range t {
			items[k] = anyToValue(e)
		}
		return value.StringMapValue(value.String, items)
	default:
		return value.StringValue(fmt.Sprintf("%v", t))
	}
}
