package graph

import (
	"testing"

	"github.com/flowmesh/engine/flow"
	"github.com/flowmesh/engine/value"
)

func TestReadySetMonotonicity(t *testing.T) {
	w := flow.New(
		[]flow.Node{{Type: "x", ID: "a"}, {Type: "x", ID: "b"}},
		[]flow.Edge{{SourceID: "a", SourceKey: "out", TargetID: "b", TargetKey: "in"}},
		[]flow.InputEdge{{InputKey: "start", TargetID: "a", TargetKey: "in"}},
		nil,
	)

	input := map[string]value.Value{"start": value.IntegerValue(1)}
	outputs := map[string]map[string]value.Value{}

	ready := ReadySet(w, input, outputs, map[string]bool{})
	if _, ok := ready["a"]; !ok {
		t.Fatal("expected node a to be ready initially")
	}
	if _, ok := ready["b"]; ok {
		t.Fatal("node b should not be ready before a finishes")
	}

	outputs["a"] = map[string]value.Value{"out": value.IntegerValue(2)}
	ready2 := ReadySet(w, input, outputs, map[string]bool{"a": true})
	if _, ok := ready2["a"]; ok {
		t.Fatal("finished node must never reappear in the ready set")
	}
	if _, ok := ready2["b"]; !ok {
		t.Fatal("node b should become ready once a finishes")
	}
}

func TestProjectOutputPartialOmitsMissing(t *testing.T) {
	w := flow.New(
		[]flow.Node{{Type: "x", ID: "a"}, {Type: "x", ID: "b"}},
		nil, nil,
		[]flow.OutputEdge{
			{SourceID: "a", SourceKey: "out", OutputKey: "first"},
			{SourceID: "b", SourceKey: "out", OutputKey: "second"},
		},
	)

	outputs := map[string]map[string]value.Value{
		"a": {"out": value.IntegerValue(1)},
	}

	partial, err := ProjectOutput(w, outputs, true)
	if err != nil {
		t.Fatalf("unexpected error in partial mode: %v", err)
	}
	if _, ok := partial["second"]; ok {
		t.Fatal("partial projection must omit unavailable keys")
	}
	if _, ok := partial["first"]; !ok {
		t.Fatal("partial projection must include available keys")
	}

	if _, err := ProjectOutput(w, outputs, false); err == nil {
		t.Fatal("strict projection must raise when a source is missing")
	}
}
