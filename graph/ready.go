// Package graph implements the non-trivial graph operations over a
// flow.Workflow: ready-set computation during execution, output
// projection (full or partial), and node expansion (splicing a subgraph
// in place of a node).
package graph

import (
	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/value"
)

// ReadySet computes, from external input, finished node outputs, and the
// set of node ids already known ready but not yet run, the set of nodes
// newly runnable: every incoming edge of a ready node is either an input
// edge whose key is present in input, or an internal edge whose source
// has already produced the referenced key. An empty result signals that
// no further progress is possible (termination, barring outstanding
// in-flight work).
func ReadySet(w *flow.Workflow, input map[string]value.Value, nodeOutputs map[string]map[string]value.Value, alreadyReady map[string]bool) map[string]map[string]value.Value {
	ready := make(map[string]map[string]value.Value)

	for _, n := range w.Nodes {
		if alreadyReady[n.ID] {
			continue
		}
		if _, done := nodeOutputs[n.ID]; done {
			continue
		}

		raw, ok := gatherInputs(w, n.ID, input, nodeOutputs)
		if ok {
			ready[n.ID] = raw
		}
	}

	return ready
}

// gatherInputs reports whether every edge feeding nodeID currently has a
// value available, and if so returns the raw {field -> value} map built
// from those edges. Fields with no incoming edge at all (no required
// field ever lacks one in a validated workflow, but optional ones may) are
// simply absent from the result.
func gatherInputs(w *flow.Workflow, nodeID string, input map[string]value.Value, nodeOutputs map[string]map[string]value.Value) (map[string]value.Value, bool) {
	raw := make(map[string]value.Value)

	for key, ie := range w.InputEdgesByTgt[nodeID] {
		v, present := input[ie.InputKey]
		if !present {
			return nil, false
		}
		raw[key] = v
	}

	for key, e := range w.EdgesByTarget[nodeID] {
		sourceOut, done := nodeOutputs[e.SourceID]
		if !done {
			return nil, false
		}
		v, present := sourceOut[e.SourceKey]
		if !present {
			return nil, false
		}
		raw[key] = v
	}

	return raw, true
}
