package memctx

import (
	"testing"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

func TestNewAssignsARunID(t *testing.T) {
	c := New()
	if c.RunID() == "" {
		t.Fatal("expected a non-empty generated run id")
	}
}

func TestWriteFileIsIdempotentForIdenticalContent(t *testing.T) {
	c := New()
	if _, err := c.WriteFile("a", []byte("hello")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := c.WriteFile("a", []byte("hello")); err != nil {
		t.Fatalf("second identical write should succeed: %v", err)
	}
}

func TestWriteFileRejectsConflictingContent(t *testing.T) {
	c := New()
	if _, err := c.WriteFile("a", []byte("hello")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := c.WriteFile("a", []byte("goodbye")); err == nil {
		t.Fatal("expected a conflict error on differing content at the same path")
	}
}

func TestHooksPersistRunState(t *testing.T) {
	c := NewWithRunID("run-xyz")

	w := flow.New([]flow.Node{{Type: "noop", ID: "n1"}}, nil, nil, nil)
	if err := c.PersistWorkflow(w); err != nil {
		t.Fatalf("PersistWorkflow: %v", err)
	}
	if _, ok := c.Blob("run-xyz/workflow.json"); !ok {
		t.Fatal("expected workflow.json to be persisted")
	}

	c.OnWorkflowStart(runctx.WorkflowView{ID: "run-xyz"}, map[string]any{"x": 1})
	if _, ok := c.Blob("run-xyz/input.json"); !ok {
		t.Fatal("expected input.json to be persisted")
	}

	outType := record.NewType("Out", []record.Field{{Name: "v", Variant: value.Integer, Required: true}})
	out, _ := outType.Validate(map[string]value.Value{"v": value.IntegerValue(5)})

	c.OnNodeStart(runctx.NodeView{ID: "n1", Type: "noop"}, record.Record{})
	if _, ok := c.Blob("run-xyz/input/n1.json"); !ok {
		t.Fatal("expected input/n1.json to be persisted")
	}

	c.OnNodeFinish(runctx.NodeView{ID: "n1", Type: "noop"}, record.Record{}, out)
	if _, ok := c.Blob("run-xyz/output/n1.json"); !ok {
		t.Fatal("expected output/n1.json to be persisted")
	}

	c.OnWorkflowFinish(runctx.WorkflowView{ID: "run-xyz"}, nil, map[string]any{"v": 5})
	if _, ok := c.Blob("run-xyz/output.json"); !ok {
		t.Fatal("expected output.json to be persisted")
	}
}

func TestOnNodeErrorPersistsErrorArtifact(t *testing.T) {
	c := NewWithRunID("run-err")
	c.OnNodeError(runctx.NodeView{ID: "n1", Type: "always_error"}, record.Record{}, errBoom{})
	if _, ok := c.Blob("run-err/n1.error.json"); !ok {
		t.Fatal("expected n1.error.json to be persisted")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
