// Package runctx defines the Context contract: the run-scoped external
// environment that owns file storage, run persistence, memoization, and
// error interception, plus the default no-op implementation.
//
// Hook signatures intentionally take lightweight, primitive-typed views
// of nodes and workflows (NodeView, WorkflowView) rather than the
// concrete types from package flow. flow's node registry needs a Context
// to execute nodes, so Context cannot in turn depend on flow without
// creating an import cycle — the same reason the teacher keeps its
// observer.Event built from plain strings/timestamps rather than
// embedding types.Node directly.
package runctx

import (
	"github.com/flowmesh/engine/record"
)

// NodeView is the minimal description of a node passed to hooks.
type NodeView struct {
	ID   string
	Type string
}

// WorkflowView is the minimal description of a workflow passed to hooks.
type WorkflowView struct {
	ID string
}

// Context is a write-through façade consumed by the execution engine and
// by File casters. All methods may suspend (perform I/O); the engine
// treats any returned error as the corresponding node or workflow
// failure.
type Context interface {
	// RunID identifies this run, generated if the caller did not supply
	// one.
	RunID() string

	// ReadFile and WriteFile back vfile.File values; WriteFile returns the
	// path actually used to store content (normally a content-addressed
	// path chosen by the file caster).
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) (string, error)

	// OnWorkflowStart may return a non-nil output to short-circuit the
	// entire run (memoization): the returned output, paired with no
	// errors, becomes the run's result and no node hooks fire.
	OnWorkflowStart(workflow WorkflowView, input map[string]any) (output map[string]any, shortCircuit bool)

	// OnNodeStart may return a non-nil output to skip running the node
	// and use that output instead.
	OnNodeStart(node NodeView, input record.Record) (output record.Record, skip bool)

	// OnNodeFinish may replace the node's computed output.
	OnNodeFinish(node NodeView, input record.Record, output record.Record) record.Record

	// OnNodeError may absorb the error by returning a replacement output;
	// returning ok=false propagates err as a NodeError.
	OnNodeError(node NodeView, input record.Record, err error) (output record.Record, absorbed bool)

	// OnWorkflowFinish/OnWorkflowError observe the terminal result; they
	// return nothing and do not alter the result returned to the run's
	// caller.
	OnWorkflowFinish(workflow WorkflowView, input map[string]any, output map[string]any)
	OnWorkflowError(workflow WorkflowView, input map[string]any, errs []string, partial map[string]any)
}
