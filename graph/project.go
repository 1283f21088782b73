package graph

import (
	"fmt"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/value"
	"github.com/flowmesh/engine/werrors"
)

// ProjectOutput materializes {output_key -> value} by traversing
// w.OutputEdges against nodeOutputs. In strict mode a missing source node
// or key raises a UserError; in partial mode missing keys are silently
// omitted, yielding whatever could be produced before a failure.
func ProjectOutput(w *flow.Workflow, nodeOutputs map[string]map[string]value.Value, partial bool) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(w.OutputEdges))

	for _, e := range w.OutputEdges {
		sourceOut, done := nodeOutputs[e.SourceID]
		if !done {
			if partial {
				continue
			}
			return nil, werrors.WrapUserError(
				fmt.Errorf("node %s never produced output", e.SourceID),
				"cannot project output key %q", e.OutputKey,
			)
		}
		v, present := sourceOut[e.SourceKey]
		if !present {
			if partial {
				continue
			}
			return nil, werrors.WrapUserError(
				fmt.Errorf("node %s has no output field %q", e.SourceID, e.SourceKey),
				"cannot project output key %q", e.OutputKey,
			)
		}
		out[e.OutputKey] = v
	}

	return out, nil
}
