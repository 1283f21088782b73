package flow

import (
	"testing"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
)

type constExecutor struct {
	out *record.Type
}

func (e *constExecutor) Validate(Node) error { return nil }
func (e *constExecutor) InputType(Node) (*record.Type, error) {
	return record.NewType("Empty", nil), nil
}
func (e *constExecutor) OutputType(Node) (*record.Type, error) { return e.out, nil }
func (e *constExecutor) Execute(runctx.Context, Node, record.Record) (Outcome, error) {
	return Outcome{}, nil
}

type passExecutor struct {
	in, out *record.Type
}

func (e *passExecutor) Validate(Node) error                      { return nil }
func (e *passExecutor) InputType(Node) (*record.Type, error)     { return e.in, nil }
func (e *passExecutor) OutputType(Node) (*record.Type, error)    { return e.out, nil }
func (e *passExecutor) Execute(runctx.Context, Node, record.Record) (Outcome, error) {
	return Outcome{}, nil
}

func TestWorkflowRejectsCycle(t *testing.T) {
	reg := NewRegistry()
	out := record.NewType("Out", []record.Field{{Name: "v", Variant: value.Integer, Required: true}})
	reg.Register("pass", &passExecutor{in: out, out: out})

	nodes := []Node{{Type: "pass", ID: "a"}, {Type: "pass", ID: "b"}}
	edges := []Edge{
		{SourceID: "a", SourceKey: "v", TargetID: "b", TargetKey: "v"},
		{SourceID: "b", SourceKey: "v", TargetID: "a", TargetKey: "v"},
	}
	w := New(nodes, edges, nil, nil)

	err := w.Validate(reg, record.NewType("In", nil), record.NewType("Out", nil))
	if err == nil {
		t.Fatal("expected cycle validation error")
	}
}

func TestWorkflowRejectsDuplicateID(t *testing.T) {
	reg := NewRegistry()
	out := record.NewType("Out", nil)
	reg.Register("const", &constExecutor{out: out})

	nodes := []Node{{Type: "const", ID: "a"}, {Type: "const", ID: "a"}}
	w := New(nodes, nil, nil, nil)
	if err := w.Validate(reg, record.NewType("In", nil), record.NewType("Out", nil)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestWorkflowRejectsIDPrefixCollision(t *testing.T) {
	reg := NewRegistry()
	out := record.NewType("Out", nil)
	reg.Register("const", &constExecutor{out: out})

	nodes := []Node{{Type: "const", ID: "a"}, {Type: "const", ID: "a/b"}}
	w := New(nodes, nil, nil, nil)
	if err := w.Validate(reg, record.NewType("In", nil), record.NewType("Out", nil)); err == nil {
		t.Fatal("expected id-prefix collision error")
	}
}

func TestWorkflowRequiresCoverageOfRequiredFields(t *testing.T) {
	reg := NewRegistry()
	in := record.NewType("In", []record.Field{{Name: "x", Variant: value.Integer, Required: true}})
	out := record.NewType("Out", nil)
	reg.Register("pass", &passExecutor{in: in, out: out})

	nodes := []Node{{Type: "pass", ID: "a"}}
	w := New(nodes, nil, nil, nil)
	if err := w.Validate(reg, record.NewType("WIn", nil), record.NewType("WOut", nil)); err == nil {
		t.Fatal("expected missing-required-input error")
	}
}

func TestNodeNamespacing(t *testing.T) {
	n := Node{Type: "const", ID: "a"}
	namespaced, err := n.WithNamespace("outer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if namespaced.ID != "outer/a" {
		t.Fatalf("expected outer/a, got %q", namespaced.ID)
	}

	if _, err := namespaced.WithNamespace("again"); err == nil {
		t.Fatal("expected error namespacing an id that already contains \"/\"")
	}
}
