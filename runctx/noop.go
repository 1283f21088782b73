package runctx

import (
	"fmt"

	"github.com/flowmesh/engine/record"
)

// NoopContext is the default context: every hook is an identity
// pass-through and file storage is backed by an in-memory map, enough to
// satisfy the Context contract without external dependencies. It is not
// meant for production use — see the demo memctx package for a fuller
// in-memory implementation with idempotent writes and run persistence.
type NoopContext struct {
	runID string
	files map[string][]byte
}

func NewNoopContext(runID string) *NoopContext {
	return &NoopContext{runID: runID, files: make(map[string][]byte)}
}

func (c *NoopContext) RunID() string { return c.runID }

func (c *NoopContext) ReadFile(path string) ([]byte, error) {
	content, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("runctx: no file at path %q", path)
	}
	return content, nil
}

func (c *NoopContext) WriteFile(path string, content []byte) (string, error) {
	c.files[path] = content
	return path, nil
}

func (c *NoopContext) OnWorkflowStart(WorkflowView, map[string]any) (map[string]any, bool) {
	return nil, false
}

func (c *NoopContext) OnNodeStart(NodeView, record.Record) (record.Record, bool) {
	return record.Record{}, false
}

func (c *NoopContext) OnNodeFinish(_ NodeView, _ record.Record, output record.Record) record.Record {
	return output
}

func (c *NoopContext) OnNodeError(_ NodeView, _ record.Record, _ error) (record.Record, bool) {
	return record.Record{}, false
}

func (c *NoopContext) OnWorkflowFinish(WorkflowView, map[string]any, map[string]any) {}

func (c *NoopContext) OnWorkflowError(WorkflowView, map[string]any, []string, map[string]any) {}
