// Package flow implements the node contract, the node type registry, and
// the edge/workflow graph structure. Node and Workflow live in one
// package because a node's dynamic expansion produces a *Workflow that
// itself contains Nodes — a genuine two-way reference, resolved here the
// same way the teacher keeps Node, Edge, and Payload together in its
// types package rather than splitting them across packages that would
// import each other.
package flow

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
)

// Node is an immutable {type, id, params} tuple. Its input/output record
// types and its run behavior are not methods on Node itself — they are
// supplied by the NodeExecutor registered against Node.Type, the same
// split the teacher uses between types.Node (data) and
// executor.NodeExecutor (behavior), needed here because Node.Run would
// otherwise have to take a runctx.Context parameter while also being
// constructed before any executor is known.
type Node struct {
	Type   string
	ID     string
	Params json.RawMessage
}

// WithNamespace returns a copy of n with id = ns + "/" + id. No id may
// contain "/" before namespacing.
func (n Node) WithNamespace(ns string) (Node, error) {
	if strings.Contains(n.ID, "/") {
		return Node{}, fmt.Errorf("flow: node id %q already contains \"/\"; namespacing would be ambiguous", n.ID)
	}
	return Node{Type: n.Type, ID: ns + "/" + n.ID, Params: n.Params}, nil
}

// Outcome is what a NodeExecutor produces: either a completed output
// record, or a subgraph signalling dynamic expansion. Exactly one of the
// two is set.
type Outcome struct {
	Output    record.Record
	Expansion *Workflow
}

// NodeExecutor supplies the behavior for one discriminator: its
// input/output record types (which may depend on Params, e.g. a
// conditional node's input type depends on its input_variant) and the
// run operation itself.
type NodeExecutor interface {
	// Validate re-validates a node's Params against this executor's
	// concrete params shape, the discriminator-dispatch re-validation the
	// base node performs on deserialization.
	Validate(node Node) error

	InputType(node Node) (*record.Type, error)
	OutputType(node Node) (*record.Type, error)

	// Execute runs the node. ctx is only used for file I/O and any
	// context-aware behavior the node itself needs; the hook protocol
	// around Execute (on_node_start/finish/error) is the engine's
	// responsibility, not the executor's.
	Execute(ctx runctx.Context, node Node, input record.Record) (Outcome, error)
}

// Registry is the discriminator-keyed node type registry, populated by
// explicit Register calls (e.g. nodes.Register). It has no freeze step:
// Register may still be called after workflows have validated against it.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]NodeExecutor
}

func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]NodeExecutor)}
}

// Register binds a discriminator to its executor. It panics on a
// conflicting re-registration of the same type, a configuration error
// caught at process init time.
func (r *Registry) Register(nodeType string, executor NodeExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.executors[nodeType]; ok && existing != executor {
		panic(fmt.Sprintf("flow: node type %q already registered", nodeType))
	}
	r.executors[nodeType] = executor
}

func (r *Registry) Get(nodeType string) (NodeExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[nodeType]
	return e, ok
}

// ValidateNode re-validates a deserialized node's Params against its
// registered executor. Attempting to deserialize an unknown discriminator
// is a registration error.
func (r *Registry) ValidateNode(node Node) error {
	executor, ok := r.Get(node.Type)
	if !ok {
		return fmt.Errorf("flow: node type %q is not registered", node.Type)
	}
	return executor.Validate(node)
}
