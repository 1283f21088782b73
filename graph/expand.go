package graph

import (
	"fmt"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/werrors"
)

// Expand replaces node nodeID in parent with the subgraph sub, producing
// a new, unvalidated Workflow: namespace every node of sub under nodeID,
// re-point parent's edges that touched nodeID through sub's matching
// input/output edges. Incoming edges with no matching sub input edge are
// dropped; outgoing edges with no matching sub output edge are dropped
// when the downstream field is optional and are an error when it is
// required or is a workflow output. Callers must still run Validate on the result;
// Expand itself only performs the splice.
func Expand(parent *flow.Workflow, nodeID string, sub *flow.Workflow, registry *flow.Registry) (*flow.Workflow, error) {
	if _, ok := parent.NodesByID[nodeID]; !ok {
		return nil, werrors.NewNodeExpansionError(nodeID, fmt.Errorf("no such node in parent workflow"))
	}

	namespacedNodes := make([]flow.Node, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		nn, err := n.WithNamespace(nodeID)
		if err != nil {
			return nil, werrors.NewNodeExpansionError(nodeID, err)
		}
		namespacedNodes = append(namespacedNodes, nn)
	}

	namespacedEdges := make([]flow.Edge, 0, len(sub.Edges))
	for _, e := range sub.Edges {
		namespacedEdges = append(namespacedEdges, flow.Edge{
			SourceID: nodeID + "/" + e.SourceID, SourceKey: e.SourceKey,
			TargetID: nodeID + "/" + e.TargetID, TargetKey: e.TargetKey,
		})
	}

	nodes := make([]flow.Node, 0, len(parent.Nodes)-1+len(namespacedNodes))
	for _, n := range parent.Nodes {
		if n.ID == nodeID {
			continue
		}
		nodes = append(nodes, n)
	}
	nodes = append(nodes, namespacedNodes...)

	edges := make([]flow.Edge, 0, len(parent.Edges)+len(namespacedEdges))
	inputEdges := make([]flow.InputEdge, 0, len(parent.InputEdges))
	outputEdges := make([]flow.OutputEdge, 0, len(parent.OutputEdges))

	for _, e := range parent.Edges {
		switch {
		case e.TargetID == nodeID:
			match := findSubInputEdgeByKey(sub, e.TargetKey)
			if match == nil {
				continue // optional input, drop
			}
			edges = append(edges, flow.Edge{
				SourceID: e.SourceID, SourceKey: e.SourceKey,
				TargetID: nodeID + "/" + match.TargetID, TargetKey: match.TargetKey,
			})
		case e.SourceID == nodeID:
			match := findSubOutputEdgeByKey(sub, e.SourceKey)
			if match == nil {
				required, err := targetFieldRequired(registry, parent, e.TargetID, e.TargetKey)
				if err != nil {
					return nil, werrors.NewNodeExpansionError(nodeID, err)
				}
				if required {
					return nil, werrors.NewNodeExpansionError(nodeID, fmt.Errorf("subgraph has no output mapped to %q, required downstream", e.SourceKey))
				}
				continue
			}
			edges = append(edges, flow.Edge{
				SourceID: nodeID + "/" + match.SourceID, SourceKey: match.SourceKey,
				TargetID: e.TargetID, TargetKey: e.TargetKey,
			})
		default:
			edges = append(edges, e)
		}
	}
	edges = append(edges, namespacedEdges...)

	for _, e := range parent.InputEdges {
		if e.TargetID != nodeID {
			inputEdges = append(inputEdges, e)
			continue
		}
		match := findSubInputEdgeByKey(sub, e.TargetKey)
		if match == nil {
			continue
		}
		inputEdges = append(inputEdges, flow.InputEdge{
			InputKey: e.InputKey, TargetID: nodeID + "/" + match.TargetID, TargetKey: match.TargetKey,
		})
	}

	for _, e := range parent.OutputEdges {
		if e.SourceID != nodeID {
			outputEdges = append(outputEdges, e)
			continue
		}
		match := findSubOutputEdgeByKey(sub, e.SourceKey)
		if match == nil {
			return nil, werrors.NewNodeExpansionError(nodeID, fmt.Errorf("subgraph has no output mapped to %q, required by workflow output %q", e.SourceKey, e.OutputKey))
		}
		outputEdges = append(outputEdges, flow.OutputEdge{
			SourceID: nodeID + "/" + match.SourceID, SourceKey: match.SourceKey, OutputKey: e.OutputKey,
		})
	}

	return flow.New(nodes, edges, inputEdges, outputEdges), nil
}

func findSubInputEdgeByKey(sub *flow.Workflow, key string) *flow.InputEdge {
	for _, e := range sub.InputEdges {
		if e.InputKey == key {
			e := e
			return &e
		}
	}
	return nil
}

func findSubOutputEdgeByKey(sub *flow.Workflow, key string) *flow.OutputEdge {
	for _, e := range sub.OutputEdges {
		if e.OutputKey == key {
			e := e
			return &e
		}
	}
	return nil
}

func targetFieldRequired(registry *flow.Registry, w *flow.Workflow, targetID, targetKey string) (bool, error) {
	n, ok := w.NodesByID[targetID]
	if !ok {
		return false, fmt.Errorf("unknown target node %q", targetID)
	}
	executor, ok := registry.Get(n.Type)
	if !ok {
		return false, fmt.Errorf("node type %q is not registered", n.Type)
	}
	in, err := executor.InputType(n)
	if err != nil {
		return false, err
	}
	f, ok := fieldOf(in, targetKey)
	if !ok {
		return false, fmt.Errorf("node %q has no input field %q", targetID, targetKey)
	}
	return f.Required, nil
}

func fieldOf(t *record.Type, name string) (record.Field, bool) {
	if t == nil {
		return record.Field{}, false
	}
	return t.Field(name)
}
