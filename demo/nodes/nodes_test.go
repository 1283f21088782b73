package nodes

import (
	"encoding/json"
	"testing"

	"github.com/flowmesh/engine/engine"
	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/runctx"
	"github.com/flowmesh/engine/value"
	"github.com/flowmesh/engine/vfile"
)

func mustParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return raw
}

func literalNode(t *testing.T, id, variant string, literal int64) flow.Node {
	t.Helper()
	return flow.Node{Type: "internal_literal", ID: id, Params: mustParams(t, ConstantParams{Variant: variant, Value: json.RawMessage(jsonInt(literal))})}
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestConstantExecutorProducesDeclaredLiteral(t *testing.T) {
	e := &ConstantExecutor{}
	node := flow.Node{Type: "constant", ID: "c1", Params: mustParams(t, ConstantParams{Variant: "integer", Value: json.RawMessage("7")})}

	if err := e.Validate(node); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	outcome, err := e.Execute(runctx.NewNoopContext("run"), node, record.Record{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	v, ok := outcome.Output.Get("value")
	if !ok {
		t.Fatal("expected field \"value\" in output")
	}
	if i, _ := v.Int(); i != 7 {
		t.Fatalf("expected 7, got %d", i)
	}
}

func TestAddExecutorSumsFields(t *testing.T) {
	e := &AddExecutor{}
	input, err := addInputType.Validate(map[string]value.Value{
		"a": value.IntegerValue(3),
		"b": value.IntegerValue(4),
	})
	if err != nil {
		t.Fatalf("building input: %v", err)
	}
	outcome, err := e.Execute(runctx.NewNoopContext("run"), flow.Node{ID: "add1"}, input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	sum, _ := outcome.Output.Get("sum")
	if v, _ := sum.Int(); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
}

func TestAlwaysErrorExecutorFails(t *testing.T) {
	e := &AlwaysErrorExecutor{}
	_, err := e.Execute(runctx.NewNoopContext("run"), flow.Node{ID: "fail1"}, record.Record{})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAppendToFileExecutorAppendsText(t *testing.T) {
	ctx := runctx.NewNoopContext("run")
	base, err := vfile.WriteAt(ctx, vfile.TextKind, "test.txt", []byte("hello "))
	if err != nil {
		t.Fatalf("seeding base file: %v", err)
	}

	e := &AppendToFileExecutor{}
	node := flow.Node{ID: "append1", Params: mustParams(t, AppendToFileParams{Suffix: "_append"})}
	if err := e.Validate(node); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	input, err := appendToFileInputType.Validate(map[string]value.Value{
		"file": value.New(vfile.TextKind, base),
		"text": value.StringValue("world"),
	})
	if err != nil {
		t.Fatalf("building input: %v", err)
	}
	outcome, err := e.Execute(ctx, node, input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	outVal, _ := outcome.Output.Get("file")
	outFile, ok := outVal.Payload().(vfile.File)
	if !ok {
		t.Fatal("expected a vfile.File payload")
	}
	if outFile.Path != "test_append.txt" {
		t.Fatalf("expected path %q, got %q", "test_append.txt", outFile.Path)
	}
	content, err := outFile.Read(ctx)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if string(content) != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", content)
	}
}

func TestAppendToFileExecutorRejectsMissingSuffix(t *testing.T) {
	e := &AppendToFileExecutor{}
	if err := e.Validate(flow.Node{ID: "append2", Params: mustParams(t, AppendToFileParams{})}); err == nil {
		t.Fatal("expected an error for an empty suffix")
	}
}

// foreachTemplate builds a template workflow computing item+1, with "one"
// a template-internal literal and "item" fed directly into plusone's "a".
func foreachTemplate(t *testing.T) workflowDoc {
	return workflowDoc{
		Nodes: []flow.Node{
			{Type: "add", ID: "plusone"},
			literalNode(t, "one", "integer", 1),
		},
		Edges:       []flow.Edge{{SourceID: "one", SourceKey: "value", TargetID: "plusone", TargetKey: "b"}},
		InputEdges:  []flow.InputEdge{{InputKey: "item", TargetID: "plusone", TargetKey: "a"}},
		OutputEdges: []flow.OutputEdge{{SourceID: "plusone", SourceKey: "sum", OutputKey: "result"}},
	}
}

func TestForEachExpandsAndCollectsResults(t *testing.T) {
	registry := flow.NewRegistry()
	Register(registry)

	foreachNode := flow.Node{
		Type: "foreach",
		ID:   "loop",
		Params: mustParams(t, ForEachParams{
			ItemTemplate:  foreachTemplate(t),
			ItemVariant:   "integer",
			ResultVariant: "integer",
		}),
	}

	w := flow.New(
		[]flow.Node{foreachNode},
		nil,
		[]flow.InputEdge{{InputKey: "items", TargetID: "loop", TargetKey: "items"}},
		[]flow.OutputEdge{{SourceID: "loop", SourceKey: "results", OutputKey: "results"}},
	)

	inputType := record.NewType("In", []record.Field{{Name: "items", Variant: value.Sequence{Elem: value.Integer}, Required: true}})
	outputType := record.NewType("Out", []record.Field{{Name: "results", Variant: value.Sequence{Elem: value.Integer}, Required: true}})

	if err := w.Validate(registry, inputType, outputType); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ctx := runctx.NewNoopContext("run-1")
	items := value.SequenceValue(value.Integer, []value.Value{value.IntegerValue(10), value.IntegerValue(20), value.IntegerValue(30)})
	errs, output := engine.Run(ctx, registry, w, inputType, outputType, map[string]value.Value{"items": items})
	if errs.Any() {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	results, ok := output["results"]
	if !ok {
		t.Fatal("expected \"results\" in output")
	}
	got, _ := results.Items()
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []int64{11, 21, 31} {
		gotVal, _ := got[i].Int()
		if gotVal != want {
			t.Fatalf("result %d: expected %d, got %d", i, want, gotVal)
		}
	}
}

// conditionalBranch builds a template workflow computing item+addend.
func conditionalBranch(t *testing.T, addend int64) workflowDoc {
	return workflowDoc{
		Nodes: []flow.Node{
			{Type: "add", ID: "sum"},
			literalNode(t, "addend", "integer", addend),
		},
		Edges:       []flow.Edge{{SourceID: "addend", SourceKey: "value", TargetID: "sum", TargetKey: "b"}},
		InputEdges:  []flow.InputEdge{{InputKey: "input", TargetID: "sum", TargetKey: "a"}},
		OutputEdges: []flow.OutputEdge{{SourceID: "sum", SourceKey: "sum", OutputKey: "output"}},
	}
}

func TestConditionalRoutesToThenOrElse(t *testing.T) {
	registry := flow.NewRegistry()
	Register(registry)

	condNode := flow.Node{
		Type: "conditional",
		ID:   "branch",
		Params: mustParams(t, ConditionalParams{
			Expression:    "item > 5",
			InputVariant:  "integer",
			OutputVariant: "integer",
			Then:          conditionalBranch(t, 100),
			Else:          conditionalBranch(t, -100),
		}),
	}

	w := flow.New(
		[]flow.Node{condNode},
		nil,
		[]flow.InputEdge{{InputKey: "n", TargetID: "branch", TargetKey: "item"}},
		[]flow.OutputEdge{{SourceID: "branch", SourceKey: "result", OutputKey: "result"}},
	)

	inputType := record.NewType("In", []record.Field{{Name: "n", Variant: value.Integer, Required: true}})
	outputType := record.NewType("Out", []record.Field{{Name: "result", Variant: value.Integer, Required: true}})

	if err := w.Validate(registry, inputType, outputType); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ctx := runctx.NewNoopContext("run-2")
	errs, output := engine.Run(ctx, registry, w, inputType, outputType, map[string]value.Value{"n": value.IntegerValue(10)})
	if errs.Any() {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	result, _ := output["result"].Int()
	if result != 110 {
		t.Fatalf("expected the then-branch (110), got %d", result)
	}
}
