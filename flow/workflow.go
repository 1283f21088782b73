package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/werrors"
)

// Workflow is an immutable DAG: a set of nodes, internal edges, input
// edges (external input into the graph), and output edges (graph result
// projection), plus the indices derived from them.
type Workflow struct {
	Nodes       []Node
	Edges       []Edge
	InputEdges  []InputEdge
	OutputEdges []OutputEdge

	NodesByID       map[string]Node
	EdgesByTarget   map[string]map[string]Edge      // node id -> target key -> edge
	InputEdgesByTgt map[string]map[string]InputEdge // node id -> target key -> input edge
}

// New builds a Workflow and its derived indices, but does not validate
// it — call Validate (or let the registry/executor do so) once the node
// registry needed for type checking is available.
func New(nodes []Node, edges []Edge, inputEdges []InputEdge, outputEdges []OutputEdge) *Workflow {
	w := &Workflow{
		Nodes:           nodes,
		Edges:           edges,
		InputEdges:      inputEdges,
		OutputEdges:     outputEdges,
		NodesByID:       make(map[string]Node, len(nodes)),
		EdgesByTarget:   make(map[string]map[string]Edge),
		InputEdgesByTgt: make(map[string]map[string]InputEdge),
	}
	for _, n := range nodes {
		w.NodesByID[n.ID] = n
	}
	for _, e := range edges {
		byKey, ok := w.EdgesByTarget[e.TargetID]
		if !ok {
			byKey = make(map[string]Edge)
			w.EdgesByTarget[e.TargetID] = byKey
		}
		byKey[e.TargetKey] = e
	}
	for _, e := range inputEdges {
		byKey, ok := w.InputEdgesByTgt[e.TargetID]
		if !ok {
			byKey = make(map[string]InputEdge)
			w.InputEdgesByTgt[e.TargetID] = byKey
		}
		byKey[e.TargetKey] = e
	}
	return w
}

// Validate checks every structural invariant: unique node ids, no id is a
// "/"-namespace prefix of another, every required input of every node is
// satisfied by exactly one incoming edge, the edge relation is acyclic,
// and every edge's type constraint holds (checked against the supplied
// registry's node input/output record types).
func (w *Workflow) Validate(registry *Registry, inputType, outputType *record.Type) error {
	if len(w.Nodes) == 0 {
		return fmt.Errorf("flow: %w", werrors.ErrEmptyWorkflow)
	}

	seen := make(map[string]bool, len(w.Nodes))
	ids := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("flow: node %q: %w", n.ID, werrors.ErrDuplicateNodeID)
		}
		seen[n.ID] = true
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if strings.HasPrefix(ids[i], ids[i-1]+"/") {
			return fmt.Errorf("flow: node %q is a namespace prefix of %q: %w", ids[i-1], ids[i], werrors.ErrIDPrefixCollision)
		}
	}

	nodeIn := make(map[string]*record.Type, len(w.Nodes))
	nodeOut := make(map[string]*record.Type, len(w.Nodes))
	for _, n := range w.Nodes {
		executor, ok := registry.Get(n.Type)
		if !ok {
			return fmt.Errorf("flow: node %s: type %q is not registered", n.ID, n.Type)
		}
		in, err := executor.InputType(n)
		if err != nil {
			return fmt.Errorf("flow: node %s: %w", n.ID, err)
		}
		out, err := executor.OutputType(n)
		if err != nil {
			return fmt.Errorf("flow: node %s: %w", n.ID, err)
		}
		nodeIn[n.ID] = in
		nodeOut[n.ID] = out
	}

	for _, e := range w.Edges {
		if err := e.ValidateTypes(nodeOut[e.SourceID], nodeIn[e.TargetID]); err != nil {
			return err
		}
	}
	for _, e := range w.InputEdges {
		if err := e.ValidateTypes(inputType, nodeIn[e.TargetID]); err != nil {
			return err
		}
	}
	for _, e := range w.OutputEdges {
		if err := e.ValidateTypes(nodeOut[e.SourceID], outputType); err != nil {
			return err
		}
	}

	targeted := make(map[[2]string]bool, len(w.Edges)+len(w.InputEdges))
	keys := make([][2]string, 0, len(w.Edges)+len(w.InputEdges))
	for _, e := range w.Edges {
		keys = append(keys, [2]string{e.TargetID, e.TargetKey})
	}
	for _, e := range w.InputEdges {
		keys = append(keys, [2]string{e.TargetID, e.TargetKey})
	}
	for _, k := range keys {
		if targeted[k] {
			return fmt.Errorf("flow: node %s field %q: %w", k[0], k[1], werrors.ErrDuplicateTargetKey)
		}
		targeted[k] = true
	}

	if err := w.checkRequiredInputsCovered(nodeIn); err != nil {
		return err
	}

	if _, err := w.topologicalOrder(); err != nil {
		return err
	}

	return nil
}

func (w *Workflow) checkRequiredInputsCovered(nodeIn map[string]*record.Type) error {
	for _, n := range w.Nodes {
		t := nodeIn[n.ID]
		if t == nil {
			continue
		}
		for _, f := range t.Fields {
			if !f.Required {
				continue
			}
			_, hasEdge := w.EdgesByTarget[n.ID][f.Name]
			_, hasInput := w.InputEdgesByTgt[n.ID][f.Name]
			if !hasEdge && !hasInput {
				return fmt.Errorf("flow: node %s field %q: %w", n.ID, f.Name, werrors.ErrMissingRequired)
			}
			if hasEdge && hasInput {
				return fmt.Errorf("flow: node %s: field %q has both an internal and an input edge", n.ID, f.Name)
			}
		}
	}
	return nil
}

// TopologicalOrder exposes the same acyclicity-checked ordering Validate
// relies on to callers outside package flow.
func (w *Workflow) TopologicalOrder() ([]string, error) {
	return w.topologicalOrder()
}

// topologicalOrder runs Kahn's algorithm over the internal edge relation,
// returning a deterministic (tie-broken by node id) topological order, or
// an error if the relation contains a cycle. This is the acyclicity
// invariant's sole enforcement point; package graph's ReadySet/Expand
// operations rely on Workflow already having passed this check.
func (w *Workflow) topologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(w.Nodes))
	adjacency := make(map[string][]string)
	for _, n := range w.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range w.Edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
		indegree[e.TargetID]++
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var newlyReady []string
		for _, next := range adjacency[id] {
			indegree[next]--
			if indegree[next] == 0 {
				newlyReady = append(newlyReady, next)
			}
		}
		sort.Strings(newlyReady)
		ready = mergeSorted(ready, newlyReady)
	}

	if len(order) != len(w.Nodes) {
		return nil, fmt.Errorf("flow: %w", werrors.ErrCycleDetected)
	}
	return order, nil
}

func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
