// Package memctx implements an in-memory runctx.Context suitable for
// demos and tests: content-addressed file storage plus the full
// persisted-run-state layout (run input, workflow definition, per-node
// input/output/error, and the run's final output/error), backed by one
// idempotent byte-keyed store. It is not meant for production use -- see
// the teacher's pkg/state for what a real backing store looks like.
package memctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

// Context is the in-memory store plus the run it is scoped to.
type Context struct {
	runID string

	mu    sync.Mutex
	blobs map[string][]byte
}

// New builds a Context with a freshly generated run id.
func New() *Context {
	return &Context{runID: uuid.NewString(), blobs: make(map[string][]byte)}
}

// NewWithRunID builds a Context for a caller-supplied run id, for
// resuming or re-inspecting a specific run rather than starting a fresh
// one.
func NewWithRunID(runID string) *Context {
	return &Context{runID: runID, blobs: make(map[string][]byte)}
}

func (c *Context) RunID() string { return c.runID }

func (c *Context) ReadFile(path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.blobs[path]
	if !ok {
		return nil, fmt.Errorf("memctx: no file at path %q", path)
	}
	return content, nil
}

// WriteFile stores content under path, idempotently: a second write to
// the same path must carry byte-identical content or it is rejected as a
// conflicting write. Content-addressed callers (vfile.Write) never hit
// the conflict case since path already encodes the content's hash; the
// check exists for the persisted-run-state paths below, where the same
// path may legitimately be written more than once (harmlessly, with the
// same bytes) within a run.
func (c *Context) WriteFile(path string, content []byte) (string, error) {
	if err := c.put(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// Blob exposes a previously written path, for inspection by callers that
// know the persisted-run-state layout below.
func (c *Context) Blob(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.blobs[path]
	return content, ok
}

func (c *Context) put(path string, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.blobs[path]; ok {
		if !bytes.Equal(existing, content) {
			return fmt.Errorf("memctx: path %q already written with different content", path)
		}
		return nil
	}
	c.blobs[path] = content
	return nil
}

// Persisted-run-state paths.
func (c *Context) inputPath() string                   { return c.runID + "/input.json" }
func (c *Context) workflowPath() string                { return c.runID + "/workflow.json" }
func (c *Context) nodeInputPath(nodeID string) string   { return c.runID + "/input/" + nodeID + ".json" }
func (c *Context) nodeOutputPath(nodeID string) string  { return c.runID + "/output/" + nodeID + ".json" }
func (c *Context) nodeErrorPath(nodeID string) string   { return c.runID + "/" + nodeID + ".error.json" }
func (c *Context) outputPath() string                   { return c.runID + "/output.json" }
func (c *Context) errorPath() string                    { return c.runID + "/error.json" }

// workflowDoc is the JSON shape a workflow is persisted under: the same
// four slices flow.Workflow exposes, re-declared here so encoding does
// not carry along Workflow's derived index fields.
type workflowDoc struct {
	Nodes       []flow.Node       `json:"nodes"`
	Edges       []flow.Edge       `json:"edges"`
	InputEdges  []flow.InputEdge  `json:"input_edges"`
	OutputEdges []flow.OutputEdge `json:"output_edges"`
}

// PersistWorkflow records the workflow definition driving this run. The
// hook protocol below never sees the flow.Workflow itself (only the
// lightweight NodeView/WorkflowView the engine passes), so this is a
// separate call the caller makes before invoking engine.Run.
func (c *Context) PersistWorkflow(w *flow.Workflow) error {
	raw, err := json.Marshal(workflowDoc{Nodes: w.Nodes, Edges: w.Edges, InputEdges: w.InputEdges, OutputEdges: w.OutputEdges})
	if err != nil {
		return err
	}
	return c.put(c.workflowPath(), raw)
}

func (c *Context) OnWorkflowStart(_ runctx.WorkflowView, input map[string]any) (map[string]any, bool) {
	if raw, err := json.Marshal(input); err == nil {
		_ = c.put(c.inputPath(), raw)
	}
	return nil, false
}

func (c *Context) OnNodeStart(node runctx.NodeView, input record.Record) (record.Record, bool) {
	if raw, err := json.Marshal(recordToJSON(input)); err == nil {
		_ = c.put(c.nodeInputPath(node.ID), raw)
	}
	return record.Record{}, false
}

func (c *Context) OnNodeFinish(node runctx.NodeView, _ record.Record, output record.Record) record.Record {
	if raw, err := json.Marshal(recordToJSON(output)); err == nil {
		_ = c.put(c.nodeOutputPath(node.ID), raw)
	}
	return output
}

func (c *Context) OnNodeError(node runctx.NodeView, _ record.Record, nodeErr error) (record.Record, bool) {
	raw, _ := json.Marshal(map[string]string{"error": nodeErr.Error()})
	_ = c.put(c.nodeErrorPath(node.ID), raw)
	return record.Record{}, false
}

func (c *Context) OnWorkflowFinish(_ runctx.WorkflowView, _ map[string]any, output map[string]any) {
	if raw, err := json.Marshal(output); err == nil {
		_ = c.put(c.outputPath(), raw)
	}
}

func (c *Context) OnWorkflowError(_ runctx.WorkflowView, _ map[string]any, errs []string, partial map[string]any) {
	raw, _ := json.Marshal(map[string]any{"errors": errs, "partial_output": partial})
	_ = c.put(c.errorPath(), raw)
}

func recordToJSON(r record.Record) map[string]any {
	out := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		doc, err := value.ToJSON(v)
		if err != nil {
			doc = fmt.Sprintf("<unencodable: %v>", err)
		}
		out[k] = doc
	}
	return out
}
