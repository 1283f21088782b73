// Package werrors defines the error taxonomy surfaced by workflow
// construction and execution: user-attributable failures, per-node
// failures, invalid dynamic expansions, and the aggregate record returned
// alongside a (possibly partial) workflow output.
package werrors

import (
	"errors"
	"fmt"
)

// Sentinel construction errors, compared with errors.Is the way the
// teacher compares its engine-level sentinels.
var (
	ErrEmptyWorkflow      = errors.New("workflow has no nodes")
	ErrDuplicateNodeID    = errors.New("duplicate node id")
	ErrIDPrefixCollision  = errors.New("node id is a namespace prefix of another node id")
	ErrCycleDetected      = errors.New("workflow edges form a cycle")
	ErrMissingRequired    = errors.New("required input field has no incoming edge")
	ErrDuplicateTargetKey = errors.New("target field already has an incoming edge")
	ErrUnknownNodeType    = errors.New("node type is not registered")
)

// UserError is a problem attributable to the workflow's author or its
// input data: a bad cast, a missing file, a schema mismatch, an invalid
// expansion target. It is never fatal to the workflow as a whole; it is
// surfaced in the aggregate error record.
type UserError struct {
	Message string
	Cause   error
}

func NewUserError(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

func WrapUserError(cause error, format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Cause }

// NodeError wraps any failure raised while preparing inputs for, or
// running, one node.
type NodeError struct {
	NodeID string
	Cause  error
}

func NewNodeError(nodeID string, cause error) *NodeError {
	return &NodeError{NodeID: nodeID, Cause: cause}
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %s", e.NodeID, e.Cause.Error())
}

func (e *NodeError) Unwrap() error { return e.Cause }

// NodeExpansionError reports that a node's dynamic expansion produced a
// subgraph that failed to splice into, or validate within, its parent
// workflow.
type NodeExpansionError struct {
	NodeID string
	Cause  error
}

func NewNodeExpansionError(nodeID string, cause error) *NodeExpansionError {
	return &NodeExpansionError{NodeID: nodeID, Cause: cause}
}

func (e *NodeExpansionError) Error() string {
	return fmt.Sprintf("node %q produced an invalid expansion: %s", e.NodeID, e.Cause.Error())
}

func (e *NodeExpansionError) Unwrap() error { return e.Cause }

// WorkflowErrors is the aggregated, serializable error record returned
// alongside a run's output. workflow-level errors (construction, fatal
// scheduling problems) are kept separate from per-node error lists so a
// caller can tell which nodes never produced output.
type WorkflowErrors struct {
	WorkflowErrors []string            `json:"workflow_errors"`
	NodeErrors     map[string][]string `json:"node_errors"`
}

func NewWorkflowErrors() *WorkflowErrors {
	return &WorkflowErrors{NodeErrors: make(map[string][]string)}
}

// Any reports whether anything went wrong during the run.
func (e *WorkflowErrors) Any() bool {
	if e == nil {
		return false
	}
	return len(e.WorkflowErrors) > 0 || len(e.NodeErrors) > 0
}

// AddWorkflow records a workflow-level (non-node-attributed) failure.
func (e *WorkflowErrors) AddWorkflow(err error) {
	e.WorkflowErrors = append(e.WorkflowErrors, err.Error())
}

// AddNode records a failure attributed to a specific node.
func (e *WorkflowErrors) AddNode(nodeID string, err error) {
	e.NodeErrors[nodeID] = append(e.NodeErrors[nodeID], err.Error())
}
